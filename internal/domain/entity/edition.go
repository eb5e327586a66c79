// Package entity 定义领域实体
package entity

import (
	"time"
)

// Edition 版次实体：同一本书的 (语言, 生成模型) 组合。
// 约束：每本书每个 (语言, 模型) 组合至多一个版次；创建后不可变。
type Edition struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BookID    string    `json:"book_id" gorm:"type:uuid;not null;uniqueIndex:uq_editions_book_lang_model"`
	Language  string    `json:"language" gorm:"type:varchar(16);not null;uniqueIndex:uq_editions_book_lang_model"`
	ModelSlug string    `json:"model_slug" gorm:"type:varchar(128);not null;uniqueIndex:uq_editions_book_lang_model"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (Edition) TableName() string {
	return "editions"
}

// NewEdition 创建新版次
func NewEdition(bookID, language, modelSlug string) *Edition {
	return &Edition{
		BookID:    bookID,
		Language:  language,
		ModelSlug: modelSlug,
		CreatedAt: time.Now(),
	}
}
