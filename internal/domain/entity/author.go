// Package entity 定义领域实体
package entity

import (
	"time"
)

// Author 虚构作者实体。
// StylePrompt 是提示词构建时注入的写作风格指令。
type Author struct {
	ID          string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PenName     string    `json:"pen_name" gorm:"type:varchar(255);not null"`
	Bio         string    `json:"bio,omitempty" gorm:"type:text"`
	StylePrompt string    `json:"style_prompt,omitempty" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (Author) TableName() string {
	return "authors"
}
