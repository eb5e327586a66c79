// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"mirage-codex-api/internal/domain/entity"
)

// EditionRepository 版次仓储接口
type EditionRepository interface {
	// Create 创建版次，违反 (book, language, model) 唯一约束时返回错误
	Create(ctx context.Context, edition *entity.Edition) error

	// GetByID 根据 ID 获取版次，不存在时返回 (nil, nil)
	GetByID(ctx context.Context, id string) (*entity.Edition, error)

	// GetByBookLangModel 根据唯一三元组获取版次
	GetByBookLangModel(ctx context.Context, bookID, language, modelSlug string) (*entity.Edition, error)

	// ListByBook 列出书籍的全部版次
	ListByBook(ctx context.Context, bookID string) ([]*entity.Edition, error)
}

// PageRepository 页面仓储接口
type PageRepository interface {
	// Insert 插入页面。重复 (edition, page_number) 时返回 ErrDuplicatePage
	// 语义的错误，调用方据此判定"已保存"。只插入，无 upsert。
	Insert(ctx context.Context, page *entity.Page) error

	// GetByEditionAndNumber 获取指定页，不存在时返回 (nil, nil)
	GetByEditionAndNumber(ctx context.Context, editionID string, pageNumber int) (*entity.Page, error)

	// ListRange 按页码升序列出 [from, to] 闭区间内已存在的页面。
	// 区间内的空洞直接跳过，不报错。
	ListRange(ctx context.Context, editionID string, from, to int) ([]*entity.Page, error)
}

// SectionRepository 章节仓储接口
type SectionRepository interface {
	// ListByBook 按 order_index 升序列出书籍的全部章节
	ListByBook(ctx context.Context, bookID string) ([]*entity.Section, error)
}
