// Package entity 定义领域实体
package entity

import (
	"time"
)

// BookSearch 书籍的原始检索上下文：触发生成这本书的自由文本查询。
// 非检索产生的书没有对应记录，缺失不是错误。
type BookSearch struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BookID    string    `json:"book_id" gorm:"type:uuid;uniqueIndex;not null"`
	Query     string    `json:"query" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (BookSearch) TableName() string {
	return "book_searches"
}

// SearchTag 检索标签
type SearchTag struct {
	ID    string `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Label string `json:"label" gorm:"type:varchar(100);uniqueIndex;not null"`
}

// TableName 指定表名
func (SearchTag) TableName() string {
	return "search_tags"
}

// BookSearchTag 检索记录与标签的关联
type BookSearchTag struct {
	SearchID string `json:"search_id" gorm:"type:uuid;primaryKey"`
	TagID    string `json:"tag_id" gorm:"type:uuid;primaryKey"`
}

// TableName 指定表名
func (BookSearchTag) TableName() string {
	return "book_search_tags"
}
