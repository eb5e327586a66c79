package repository

import (
	"context"

	"mirage-codex-api/internal/domain/entity"
)

// SearchRepository 检索上下文仓储接口
type SearchRepository interface {
	// GetByBook 获取书籍的检索记录，不存在时返回 (nil, nil)
	GetByBook(ctx context.Context, bookID string) (*entity.BookSearch, error)

	// ListTagLabels 批量解析检索记录关联的标签显示名
	ListTagLabels(ctx context.Context, searchID string) ([]string, error)
}
