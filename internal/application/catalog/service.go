// Package catalog 实现书架浏览、检索与互动
package catalog

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mirage-codex-api/internal/domain/entity"
	"mirage-codex-api/internal/domain/repository"
	"mirage-codex-api/internal/infrastructure/messaging"
	"mirage-codex-api/internal/infrastructure/persistence/redis"
	apperrors "mirage-codex-api/pkg/errors"
	"mirage-codex-api/pkg/logger"
)

var tracer = otel.Tracer("catalog")

const (
	bookCacheTTL     = 5 * time.Minute
	sectionsCacheTTL = 30 * time.Minute
)

// BookDetail 书籍详情，含版次列表
type BookDetail struct {
	Book     *entity.Book      `json:"book"`
	Author   *entity.Author    `json:"author,omitempty"`
	Editions []*entity.Edition `json:"editions"`
}

// Service 书架服务
type Service struct {
	books     repository.BookRepository
	authors   repository.AuthorRepository
	editions  repository.EditionRepository
	sections  repository.SectionRepository
	reactions repository.ReactionRepository
	cache     *redis.Cache
	producer  *messaging.Producer
}

// NewService 创建书架服务
func NewService(
	books repository.BookRepository,
	authors repository.AuthorRepository,
	editions repository.EditionRepository,
	sections repository.SectionRepository,
	reactions repository.ReactionRepository,
	cache *redis.Cache,
	producer *messaging.Producer,
) *Service {
	return &Service{
		books:     books,
		authors:   authors,
		editions:  editions,
		sections:  sections,
		reactions: reactions,
		cache:     cache,
		producer:  producer,
	}
}

// ListBooks 按过滤条件分页浏览书籍
func (s *Service) ListBooks(ctx context.Context, filter *repository.BookFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Book], error) {
	ctx, span := tracer.Start(ctx, "catalog.Service.ListBooks")
	defer span.End()

	return s.books.List(ctx, filter, pagination)
}

// GetBook 获取书籍详情，经过 Read-Through 缓存
func (s *Service) GetBook(ctx context.Context, bookID string) (*BookDetail, error) {
	ctx, span := tracer.Start(ctx, "catalog.Service.GetBook",
		trace.WithAttributes(attribute.String("book_id", bookID)))
	defer span.End()

	data, err := s.cache.GetOrLoadSafe(ctx, redis.BuildBookKey(bookID), bookCacheTTL, func() (interface{}, error) {
		return s.loadBookDetail(ctx, bookID)
	})
	if err != nil {
		return nil, err
	}

	var detail BookDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (s *Service) loadBookDetail(ctx context.Context, bookID string) (*BookDetail, error) {
	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, apperrors.ErrBookNotFound
	}

	author, err := s.authors.GetByID(ctx, book.AuthorID)
	if err != nil {
		return nil, err
	}

	editions, err := s.editions.ListByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	return &BookDetail{
		Book:     book,
		Author:   author,
		Editions: editions,
	}, nil
}

// ListSections 列出书籍的章节大纲，经过 Read-Through 缓存
func (s *Service) ListSections(ctx context.Context, bookID string) ([]*entity.Section, error) {
	ctx, span := tracer.Start(ctx, "catalog.Service.ListSections",
		trace.WithAttributes(attribute.String("book_id", bookID)))
	defer span.End()

	data, err := s.cache.GetOrLoadSafe(ctx, redis.BuildSectionsKey(bookID), sectionsCacheTTL, func() (interface{}, error) {
		return s.sections.ListByBook(ctx, bookID)
	})
	if err != nil {
		return nil, err
	}

	var sections []*entity.Section
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

// ToggleReaction 翻转点赞/收藏状态，并使书籍缓存失效
func (s *Service) ToggleReaction(ctx context.Context, userID, bookID string, kind entity.ReactionKind) (bool, error) {
	ctx, span := tracer.Start(ctx, "catalog.Service.ToggleReaction",
		trace.WithAttributes(
			attribute.String("book_id", bookID),
			attribute.String("reaction.kind", string(kind)),
		))
	defer span.End()

	if !kind.Valid() {
		return false, apperrors.New(apperrors.CodeInvalidParam, "unknown reaction kind")
	}

	active, err := s.reactions.Toggle(ctx, userID, bookID, kind)
	if err != nil {
		return false, err
	}

	if err := s.cache.InvalidateBook(ctx, bookID); err != nil {
		logger.FromContext(ctx).Warn("failed to invalidate book cache", "error", err, "book_id", bookID)
	}

	return active, nil
}

// RecordView 发布页面浏览事件。异步通道，失败只记日志不影响读路径。
func (s *Service) RecordView(ctx context.Context, view *messaging.PageViewMessage) {
	ctx, span := tracer.Start(ctx, "catalog.Service.RecordView",
		trace.WithAttributes(attribute.String("book_id", view.BookID)))
	defer span.End()

	if _, err := s.producer.PublishPageView(ctx, view); err != nil {
		logger.FromContext(ctx).Warn("failed to publish page view", "error", err, "book_id", view.BookID)
	}
}
