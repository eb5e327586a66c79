package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"mirage-codex-api/internal/domain/entity"
	"mirage-codex-api/internal/domain/repository"
)

// PageImageRepository 页面插图仓储实现
type PageImageRepository struct {
	client *Client
}

// NewPageImageRepository 创建页面插图仓储
func NewPageImageRepository(client *Client) repository.PageImageRepository {
	return &PageImageRepository{client: client}
}

// GetByHash 按幂等哈希查找插图记录
func (r *PageImageRepository) GetByHash(ctx context.Context, hash string) (*entity.PageImage, error) {
	ctx, span := tracer.Start(ctx, "postgres.PageImageRepository.GetByHash")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var image entity.PageImage
	err := db.Where("hash = ?", hash).First(&image).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get page image: %w", err)
	}
	return &image, nil
}

// Insert 插入插图记录。哈希主键冲突返回 repository.ErrDuplicateImage。
func (r *PageImageRepository) Insert(ctx context.Context, image *entity.PageImage) error {
	ctx, span := tracer.Start(ctx, "postgres.PageImageRepository.Insert")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(image).Error; err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateImage
		}
		span.RecordError(err)
		return fmt.Errorf("failed to insert page image: %w", err)
	}
	return nil
}
