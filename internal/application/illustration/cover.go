package illustration

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mirage-codex-api/internal/domain/repository"
	"mirage-codex-api/internal/infrastructure/imagegen"
	"mirage-codex-api/internal/infrastructure/objectstore"
	apperrors "mirage-codex-api/pkg/errors"
	"mirage-codex-api/pkg/metrics"
)

// Covers 封面生成器。
// 与页面插图不同：一本书只有一个封面槽位，重生成直接覆盖（upsert），
// 不走哈希幂等。
type Covers struct {
	books     repository.BookRepository
	generator imagegen.Generator
	store     objectstore.Store
}

// NewCovers 创建封面生成器
func NewCovers(books repository.BookRepository, generator imagegen.Generator, store objectstore.Store) *Covers {
	return &Covers{
		books:     books,
		generator: generator,
		store:     store,
	}
}

// Ensure 确保书籍有封面。已有封面直接返回；
// force 为 true 时跳过检查重新生成并覆盖。
func (c *Covers) Ensure(ctx context.Context, userID, bookID, prompt string, force bool) (string, error) {
	ctx, span := tracer.Start(ctx, "illustration.Covers.Ensure",
		trace.WithAttributes(
			attribute.String("book_id", bookID),
			attribute.Bool("cover.force", force),
		))
	defer span.End()

	book, err := c.books.GetByID(ctx, bookID)
	if err != nil {
		return "", err
	}
	if book == nil {
		return "", apperrors.ErrBookNotFound
	}

	if book.HasCover() && !force {
		span.SetAttributes(attribute.Bool("cover.reused", true))
		return book.CoverURL, nil
	}

	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}

	start := time.Now()
	data, params, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	metrics.ImageGenDuration.WithLabelValues("cover").Observe(time.Since(start).Seconds())

	objectName := fmt.Sprintf("covers/%s.%s", bookID, params.Format)
	url, err := c.store.Upload(ctx, objectName, data)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	if err := c.books.UpdateCoverURL(ctx, bookID, url); err != nil {
		return "", err
	}

	return url, nil
}
