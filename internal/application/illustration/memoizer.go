package illustration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mirage-codex-api/internal/domain/entity"
	"mirage-codex-api/internal/domain/repository"
	"mirage-codex-api/internal/infrastructure/imagegen"
	"mirage-codex-api/internal/infrastructure/objectstore"
	apperrors "mirage-codex-api/pkg/errors"
	"mirage-codex-api/pkg/logger"
	"mirage-codex-api/pkg/metrics"
)

var tracer = otel.Tracer("illustration")

// EnsureRequest 页面插图请求
type EnsureRequest struct {
	// UserID 请求身份；缓存命中路径允许匿名，未命中路径必须有身份
	UserID     string
	BookID     string
	EditionID  string
	PageNumber int
	Prompt     string
}

// ImageRef 插图引用
type ImageRef struct {
	Hash string
	URL  string
	// Reused 命中已有记录，本次未调用生成提供商
	Reused bool
}

// Memoizer 页面插图的幂等生成器。
// 哈希是唯一的幂等键：同样的四元组输入总是解析到同一个存储产物。
type Memoizer struct {
	images    repository.PageImageRepository
	generator imagegen.Generator
	store     objectstore.Store
}

// NewMemoizer 创建插图生成器
func NewMemoizer(images repository.PageImageRepository, generator imagegen.Generator, store objectstore.Store) *Memoizer {
	return &Memoizer{
		images:    images,
		generator: generator,
		store:     store,
	}
}

// Ensure 确保插图存在并返回引用。
// 命中 -> 直接返回；未命中 -> 要求身份 -> 生成 -> 上传 -> 记录。
// 上传失败是硬错误且不落记录；记录插入失败重试一次后容忍，
// 图像仍然可服务，下次调用会重新生成。
func (m *Memoizer) Ensure(ctx context.Context, req *EnsureRequest) (*ImageRef, error) {
	hash := PageImageHash(req.BookID, req.EditionID, req.PageNumber, req.Prompt)

	ctx, span := tracer.Start(ctx, "illustration.Memoizer.Ensure",
		trace.WithAttributes(
			attribute.String("book_id", req.BookID),
			attribute.String("edition_id", req.EditionID),
			attribute.Int("page_number", req.PageNumber),
			attribute.String("image_hash", hash),
		))
	defer span.End()

	log := logger.FromContext(ctx)

	existing, err := m.images.GetByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		span.SetAttributes(attribute.Bool("image.memo_hit", true))
		metrics.ImageMemoTotal.WithLabelValues("hit").Inc()
		return &ImageRef{Hash: hash, URL: existing.URL, Reused: true}, nil
	}

	metrics.ImageMemoTotal.WithLabelValues("miss").Inc()

	// 生成路径需要身份，命中路径不需要
	if req.UserID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	start := time.Now()
	data, params, err := m.generator.Generate(ctx, req.Prompt)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	metrics.ImageGenDuration.WithLabelValues("page").Observe(time.Since(start).Seconds())

	objectName := fmt.Sprintf("pages/%s/%s/%d-%s.%s",
		req.BookID, req.EditionID, req.PageNumber, hash[:12], params.Format)
	url, err := m.store.Upload(ctx, objectName, data)
	if err != nil {
		// 上传失败不落记录，避免指向不存在产物的悬挂行
		span.RecordError(err)
		return nil, err
	}

	image := &entity.PageImage{
		Hash:       hash,
		BookID:     req.BookID,
		EditionID:  req.EditionID,
		PageNumber: req.PageNumber,
		Prompt:     req.Prompt,
		URL:        url,
		Params: &entity.ImageParams{
			Model:  params.Model,
			Width:  params.Width,
			Height: params.Height,
			Steps:  params.Steps,
			Seed:   params.Seed,
			Format: params.Format,
		},
	}

	if err := m.insertWithRetry(ctx, image); err != nil {
		if errors.Is(err, repository.ErrDuplicateImage) {
			// 并发未命中竞争：另一条记录已经落下，本次生成成本作废
			log.Info("concurrent image insert lost the race", "image_hash", hash)
			return &ImageRef{Hash: hash, URL: url, Reused: false}, nil
		}
		// 上传已成功：容忍缺失的记录行，图像仍然可服务
		log.Error("failed to record page image after upload",
			"error", err,
			"image_hash", hash,
			"url", url,
		)
		return &ImageRef{Hash: hash, URL: url, Reused: false}, nil
	}

	return &ImageRef{Hash: hash, URL: url, Reused: false}, nil
}

// insertWithRetry 插入记录，瞬时失败重试一次
func (m *Memoizer) insertWithRetry(ctx context.Context, image *entity.PageImage) error {
	err := m.images.Insert(ctx, image)
	if err == nil || errors.Is(err, repository.ErrDuplicateImage) {
		return err
	}
	return m.images.Insert(ctx, image)
}
