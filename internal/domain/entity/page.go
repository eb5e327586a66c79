// Package entity 定义领域实体
package entity

import (
	"strings"
	"time"
)

// Page 页面实体，隶属于唯一版次，页码从 1 开始。
// 约束：(edition_id, page_number) 唯一；只插入不更新，首写者胜出。
type Page struct {
	ID         string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EditionID  string    `json:"edition_id" gorm:"type:uuid;not null;uniqueIndex:uq_pages_edition_number"`
	PageNumber int       `json:"page_number" gorm:"not null;uniqueIndex:uq_pages_edition_number"`
	Content    string    `json:"content" gorm:"type:text;not null"`
	WordCount  int       `json:"word_count" gorm:"default:0"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (Page) TableName() string {
	return "pages"
}

// NewPage 创建新页面
func NewPage(editionID string, pageNumber int, content string) *Page {
	return &Page{
		EditionID:  editionID,
		PageNumber: pageNumber,
		Content:    content,
		WordCount:  len(strings.Fields(content)),
		CreatedAt:  time.Now(),
	}
}
