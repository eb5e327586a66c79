// Package entity 定义领域实体
package entity

import (
	"time"
)

// Book 书籍实体。
// 书籍本身不持有页面内容，页面隶属于具体的版次（Edition）。
type Book struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title     string    `json:"title" gorm:"type:varchar(255);not null"`
	Summary   string    `json:"summary,omitempty" gorm:"type:text"`
	AuthorID  string    `json:"author_id" gorm:"type:uuid;index;not null"`
	GenreSlug string    `json:"genre_slug" gorm:"type:varchar(100);index"`
	Language  string    `json:"language" gorm:"type:varchar(16);not null"`
	PageCount int       `json:"page_count" gorm:"not null"`
	CoverURL  string    `json:"cover_url,omitempty" gorm:"type:text"`
	LikeCount int64     `json:"like_count" gorm:"default:0"`
	ViewCount int64     `json:"view_count" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Book) TableName() string {
	return "books"
}

// NewBook 创建新书籍
func NewBook(title, authorID, genreSlug, language string, pageCount int) *Book {
	now := time.Now()
	return &Book{
		Title:     title,
		AuthorID:  authorID,
		GenreSlug: genreSlug,
		Language:  language,
		PageCount: pageCount,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasCover 检查书籍是否已有封面
func (b *Book) HasCover() bool {
	return b.CoverURL != ""
}
