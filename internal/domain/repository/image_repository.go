// Package repository 定义数据访问层接口
package repository

import (
	"context"
	"errors"

	"mirage-codex-api/internal/domain/entity"
)

// ErrDuplicateImage 同一哈希的记录已存在（并发缓存未命中竞争时出现）
var ErrDuplicateImage = errors.New("page image already recorded")

// PageImageRepository 页面插图仓储接口
type PageImageRepository interface {
	// GetByHash 按幂等哈希查找，不存在时返回 (nil, nil)
	GetByHash(ctx context.Context, hash string) (*entity.PageImage, error)

	// Insert 插入插图记录。哈希冲突时返回 ErrDuplicateImage。
	Insert(ctx context.Context, image *entity.PageImage) error
}
