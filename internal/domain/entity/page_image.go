// Package entity 定义领域实体
package entity

import (
	"time"
)

// ImageParams 图像生成参数快照
type ImageParams struct {
	Model  string `json:"model,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Steps  int    `json:"steps"`
	Seed   int64  `json:"seed"`
	Format string `json:"format"`
}

// PageImage 页面插图记录。
// Hash 由 (book_id, edition_id, page_number, prompt) 确定性派生，
// 作为幂等键：同一哈希至多一行，重复请求复用已有图像。
type PageImage struct {
	Hash       string       `json:"hash" gorm:"type:char(64);primaryKey"`
	BookID     string       `json:"book_id" gorm:"type:uuid;index;not null"`
	EditionID  string       `json:"edition_id" gorm:"type:uuid;index;not null"`
	PageNumber int          `json:"page_number" gorm:"not null"`
	Prompt     string       `json:"prompt" gorm:"type:text;not null"`
	URL        string       `json:"url" gorm:"type:text;not null"`
	Params     *ImageParams `json:"params,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt  time.Time    `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (PageImage) TableName() string {
	return "page_images"
}
