// Package entity 定义领域实体
package entity

// AIModel 生成模型注册表项。
// Provider 用于自带 Key 的免计费判定与 LLM 工厂路由。
type AIModel struct {
	Slug        string `json:"slug" gorm:"type:varchar(128);primaryKey"`
	Provider    string `json:"provider" gorm:"type:varchar(64);not null;index"`
	DisplayName string `json:"display_name" gorm:"type:varchar(255);not null"`
	Enabled     bool   `json:"enabled" gorm:"default:true"`
}

// TableName 指定表名
func (AIModel) TableName() string {
	return "ai_models"
}
