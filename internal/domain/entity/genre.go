// Package entity 定义领域实体
package entity

// Genre 体裁配置。
// 每个体裁携带自己的生成参数：格式指令与单页目标字数。
type Genre struct {
	Slug            string `json:"slug" gorm:"type:varchar(100);primaryKey"`
	Name            string `json:"name" gorm:"type:varchar(255);not null"`
	PromptFormat    string `json:"prompt_format,omitempty" gorm:"type:text"`
	TargetPageWords int    `json:"target_page_words" gorm:"default:0"`
}

// TableName 指定表名
func (Genre) TableName() string {
	return "genres"
}

// PageWords 返回体裁的单页目标字数，未配置时返回兜底值
func (g *Genre) PageWords(fallback int) int {
	if g == nil || g.TargetPageWords <= 0 {
		return fallback
	}
	return g.TargetPageWords
}
