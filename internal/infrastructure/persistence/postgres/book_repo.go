package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"mirage-codex-api/internal/domain/entity"
	"mirage-codex-api/internal/domain/repository"
)

// BookRepository 书籍仓储实现
type BookRepository struct {
	client *Client
}

// NewBookRepository 创建书籍仓储
func NewBookRepository(client *Client) repository.BookRepository {
	return &BookRepository{client: client}
}

// Create 创建书籍
func (r *BookRepository) Create(ctx context.Context, book *entity.Book) error {
	ctx, span := tracer.Start(ctx, "postgres.BookRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(book).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

// GetByID 根据 ID 获取书籍
func (r *BookRepository) GetByID(ctx context.Context, id string) (*entity.Book, error) {
	ctx, span := tracer.Start(ctx, "postgres.BookRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var book entity.Book
	err := db.Where("id = ?", id).First(&book).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return &book, nil
}

// List 按过滤条件分页列出书籍
func (r *BookRepository) List(ctx context.Context, filter *repository.BookFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Book], error) {
	ctx, span := tracer.Start(ctx, "postgres.BookRepository.List")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Book{})

	if filter != nil {
		if filter.GenreSlug != "" {
			query = query.Where("genre_slug = ?", filter.GenreSlug)
		}
		if filter.Language != "" {
			query = query.Where("language = ?", filter.Language)
		}
		if filter.Query != "" {
			pattern := "%" + filter.Query + "%"
			query = query.Where("title ILIKE ? OR summary ILIKE ?", pattern, pattern)
		}
		if len(filter.TagLabels) > 0 {
			query = query.Where(
				"id IN (?)",
				db.Model(&entity.BookSearch{}).
					Select("book_searches.book_id").
					Joins("JOIN book_search_tags bst ON bst.search_id = book_searches.id").
					Joins("JOIN search_tags st ON st.id = bst.tag_id").
					Where("st.label IN ?", filter.TagLabels),
			)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count books: %w", err)
	}

	var books []*entity.Book
	err := query.
		Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&books).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	return repository.NewPagedResult(books, total, pagination), nil
}

// UpdateCoverURL 设置/覆盖封面地址
func (r *BookRepository) UpdateCoverURL(ctx context.Context, id, coverURL string) error {
	ctx, span := tracer.Start(ctx, "postgres.BookRepository.UpdateCoverURL")
	defer span.End()

	db := getDB(ctx, r.client.db)
	result := db.Model(&entity.Book{}).
		Where("id = ?", id).
		Update("cover_url", coverURL)
	if result.Error != nil {
		span.RecordError(result.Error)
		return fmt.Errorf("failed to update cover url: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("book not found: %s", id)
	}
	return nil
}

// IncrementViewCount 累加浏览计数
func (r *BookRepository) IncrementViewCount(ctx context.Context, id string, delta int64) error {
	ctx, span := tracer.Start(ctx, "postgres.BookRepository.IncrementViewCount")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Model(&entity.Book{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", delta)).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	return nil
}
