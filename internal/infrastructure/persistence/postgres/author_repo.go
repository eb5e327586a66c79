package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"mirage-codex-api/internal/domain/entity"
	"mirage-codex-api/internal/domain/repository"
)

// AuthorRepository 作者仓储实现
type AuthorRepository struct {
	client *Client
}

// NewAuthorRepository 创建作者仓储
func NewAuthorRepository(client *Client) repository.AuthorRepository {
	return &AuthorRepository{client: client}
}

// GetByID 根据 ID 获取作者
func (r *AuthorRepository) GetByID(ctx context.Context, id string) (*entity.Author, error) {
	ctx, span := tracer.Start(ctx, "postgres.AuthorRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var author entity.Author
	err := db.Where("id = ?", id).First(&author).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get author: %w", err)
	}
	return &author, nil
}

// GenreRepository 体裁仓储实现
type GenreRepository struct {
	client *Client
}

// NewGenreRepository 创建体裁仓储
func NewGenreRepository(client *Client) repository.GenreRepository {
	return &GenreRepository{client: client}
}

// GetBySlug 根据 slug 获取体裁
func (r *GenreRepository) GetBySlug(ctx context.Context, slug string) (*entity.Genre, error) {
	ctx, span := tracer.Start(ctx, "postgres.GenreRepository.GetBySlug")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var genre entity.Genre
	err := db.Where("slug = ?", slug).First(&genre).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get genre: %w", err)
	}
	return &genre, nil
}
