package repository

import (
	"context"

	"mirage-codex-api/internal/domain/entity"
)

// ReactionRepository 互动仓储接口
type ReactionRepository interface {
	// Toggle 翻转用户对书籍的互动状态，并在同一事务内维护
	// 书籍上的反规范化计数器。返回翻转后的状态（true=已激活）。
	Toggle(ctx context.Context, userID, bookID string, kind entity.ReactionKind) (bool, error)
}
