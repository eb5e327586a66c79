package postgres

import (
	"context"
	"fmt"

	"mirage-codex-api/internal/domain/entity"
	"mirage-codex-api/internal/domain/repository"
)

// SectionRepository 章节仓储实现
type SectionRepository struct {
	client *Client
}

// NewSectionRepository 创建章节仓储
func NewSectionRepository(client *Client) repository.SectionRepository {
	return &SectionRepository{client: client}
}

// ListByBook 按 order_index 升序列出书籍的全部章节
func (r *SectionRepository) ListByBook(ctx context.Context, bookID string) ([]*entity.Section, error) {
	ctx, span := tracer.Start(ctx, "postgres.SectionRepository.ListByBook")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var sections []*entity.Section
	err := db.Where("book_id = ?", bookID).
		Order("order_index ASC").
		Find(&sections).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	return sections, nil
}
