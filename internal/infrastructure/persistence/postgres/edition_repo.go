package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"mirage-codex-api/internal/domain/entity"
	"mirage-codex-api/internal/domain/repository"
)

// EditionRepository 版次仓储实现
type EditionRepository struct {
	client *Client
}

// NewEditionRepository 创建版次仓储
func NewEditionRepository(client *Client) repository.EditionRepository {
	return &EditionRepository{client: client}
}

// Create 创建版次
func (r *EditionRepository) Create(ctx context.Context, edition *entity.Edition) error {
	ctx, span := tracer.Start(ctx, "postgres.EditionRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(edition).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create edition: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取版次
func (r *EditionRepository) GetByID(ctx context.Context, id string) (*entity.Edition, error) {
	ctx, span := tracer.Start(ctx, "postgres.EditionRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var edition entity.Edition
	err := db.Where("id = ?", id).First(&edition).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get edition: %w", err)
	}
	return &edition, nil
}

// GetByBookLangModel 根据唯一三元组获取版次
func (r *EditionRepository) GetByBookLangModel(ctx context.Context, bookID, language, modelSlug string) (*entity.Edition, error) {
	ctx, span := tracer.Start(ctx, "postgres.EditionRepository.GetByBookLangModel")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var edition entity.Edition
	err := db.Where("book_id = ? AND language = ? AND model_slug = ?", bookID, language, modelSlug).
		First(&edition).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get edition by triple: %w", err)
	}
	return &edition, nil
}

// ListByBook 列出书籍的全部版次
func (r *EditionRepository) ListByBook(ctx context.Context, bookID string) ([]*entity.Edition, error) {
	ctx, span := tracer.Start(ctx, "postgres.EditionRepository.ListByBook")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var editions []*entity.Edition
	err := db.Where("book_id = ?", bookID).
		Order("created_at ASC").
		Find(&editions).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list editions: %w", err)
	}
	return editions, nil
}
