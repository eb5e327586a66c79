// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"mirage-codex-api/internal/domain/entity"
)

// BookFilter 书籍过滤条件
type BookFilter struct {
	GenreSlug string
	Language  string
	// Query 对标题与摘要做模糊匹配
	Query string
	// TagLabels 按检索标签过滤
	TagLabels []string
}

// BookRepository 书籍仓储接口
type BookRepository interface {
	// Create 创建书籍
	Create(ctx context.Context, book *entity.Book) error

	// GetByID 根据 ID 获取书籍，不存在时返回 (nil, nil)
	GetByID(ctx context.Context, id string) (*entity.Book, error)

	// List 按过滤条件分页列出书籍
	List(ctx context.Context, filter *BookFilter, pagination Pagination) (*PagedResult[*entity.Book], error)

	// UpdateCoverURL 设置/覆盖封面地址（封面槽位唯一，允许重生成覆盖）
	UpdateCoverURL(ctx context.Context, id, coverURL string) error

	// IncrementViewCount 累加浏览计数
	IncrementViewCount(ctx context.Context, id string, delta int64) error
}

// AuthorRepository 作者仓储接口
type AuthorRepository interface {
	// GetByID 根据 ID 获取作者，不存在时返回 (nil, nil)
	GetByID(ctx context.Context, id string) (*entity.Author, error)
}

// GenreRepository 体裁仓储接口
type GenreRepository interface {
	// GetBySlug 根据 slug 获取体裁，不存在时返回 (nil, nil)
	GetBySlug(ctx context.Context, slug string) (*entity.Genre, error)
}
