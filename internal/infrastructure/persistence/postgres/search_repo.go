package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"mirage-codex-api/internal/domain/entity"
	"mirage-codex-api/internal/domain/repository"
)

// SearchRepository 检索上下文仓储实现
type SearchRepository struct {
	client *Client
}

// NewSearchRepository 创建检索上下文仓储
func NewSearchRepository(client *Client) repository.SearchRepository {
	return &SearchRepository{client: client}
}

// GetByBook 获取书籍的检索记录
func (r *SearchRepository) GetByBook(ctx context.Context, bookID string) (*entity.BookSearch, error) {
	ctx, span := tracer.Start(ctx, "postgres.SearchRepository.GetByBook")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var search entity.BookSearch
	err := db.Where("book_id = ?", bookID).First(&search).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get book search: %w", err)
	}
	return &search, nil
}

// ListTagLabels 批量解析检索记录关联的标签显示名
func (r *SearchRepository) ListTagLabels(ctx context.Context, searchID string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "postgres.SearchRepository.ListTagLabels")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var labels []string
	err := db.Model(&entity.SearchTag{}).
		Select("search_tags.label").
		Joins("JOIN book_search_tags bst ON bst.tag_id = search_tags.id").
		Where("bst.search_id = ?", searchID).
		Order("search_tags.label ASC").
		Pluck("search_tags.label", &labels).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list tag labels: %w", err)
	}
	return labels, nil
}
