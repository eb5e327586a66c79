package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"mirage-codex-api/internal/domain/entity"
	"mirage-codex-api/internal/domain/repository"
)

// PageRepository 页面仓储实现
type PageRepository struct {
	client *Client
}

// NewPageRepository 创建页面仓储
func NewPageRepository(client *Client) repository.PageRepository {
	return &PageRepository{client: client}
}

// Insert 插入页面。(edition_id, page_number) 唯一约束冲突时返回
// repository.ErrDuplicatePage，由保存路径判定幂等命中。
func (r *PageRepository) Insert(ctx context.Context, page *entity.Page) error {
	ctx, span := tracer.Start(ctx, "postgres.PageRepository.Insert")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(page).Error; err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicatePage
		}
		span.RecordError(err)
		return fmt.Errorf("failed to insert page: %w", err)
	}
	return nil
}

// GetByEditionAndNumber 获取指定页
func (r *PageRepository) GetByEditionAndNumber(ctx context.Context, editionID string, pageNumber int) (*entity.Page, error) {
	ctx, span := tracer.Start(ctx, "postgres.PageRepository.GetByEditionAndNumber")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var page entity.Page
	err := db.Where("edition_id = ? AND page_number = ?", editionID, pageNumber).
		First(&page).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	return &page, nil
}

// ListRange 按页码升序列出 [from, to] 区间内已存在的页面
func (r *PageRepository) ListRange(ctx context.Context, editionID string, from, to int) ([]*entity.Page, error) {
	ctx, span := tracer.Start(ctx, "postgres.PageRepository.ListRange")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var pages []*entity.Page
	err := db.Where("edition_id = ? AND page_number BETWEEN ? AND ?", editionID, from, to).
		Order("page_number ASC").
		Find(&pages).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	return pages, nil
}
