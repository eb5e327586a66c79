// Package entity 定义领域实体
package entity

import (
	"time"
)

// ReactionKind 互动类型
type ReactionKind string

const (
	ReactionKindLike     ReactionKind = "like"
	ReactionKindBookmark ReactionKind = "bookmark"
)

// Valid 检查互动类型是否合法
func (k ReactionKind) Valid() bool {
	return k == ReactionKindLike || k == ReactionKindBookmark
}

// Reaction 用户对书籍的互动（点赞/收藏）。
// 约束：(user_id, book_id, kind) 唯一；翻转与计数器维护在同一事务内完成。
type Reaction struct {
	ID        string       `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    string       `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:uq_reactions_user_book_kind"`
	BookID    string       `json:"book_id" gorm:"type:uuid;not null;uniqueIndex:uq_reactions_user_book_kind"`
	Kind      ReactionKind `json:"kind" gorm:"type:varchar(20);not null;uniqueIndex:uq_reactions_user_book_kind"`
	CreatedAt time.Time    `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (Reaction) TableName() string {
	return "reactions"
}
