// Package entity 定义领域实体
package entity

// Section 章节实体，隶属于书籍（而非版次），页码区间为闭区间。
type Section struct {
	ID         string `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BookID     string `json:"book_id" gorm:"type:uuid;index;not null"`
	OrderIndex int    `json:"order_index" gorm:"not null"`
	Title      string `json:"title" gorm:"type:varchar(255);not null"`
	Summary    string `json:"summary,omitempty" gorm:"type:text"`
	FromPage   int    `json:"from_page" gorm:"not null"`
	ToPage     int    `json:"to_page" gorm:"not null"`
}

// TableName 指定表名
func (Section) TableName() string {
	return "sections"
}

// Contains 检查页码是否落在章节区间内（闭区间）
func (s *Section) Contains(pageNumber int) bool {
	return pageNumber >= s.FromPage && pageNumber <= s.ToPage
}

// Length 返回章节覆盖的页数
func (s *Section) Length() int {
	return s.ToPage - s.FromPage + 1
}
