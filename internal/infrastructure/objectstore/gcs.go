// Package objectstore 提供对象存储实现（Google Cloud Storage）
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/option"

	"mirage-codex-api/internal/config"
	"mirage-codex-api/pkg/errors"
)

var tracer = otel.Tracer("objectstore")

// Store 对象存储接口
type Store interface {
	// Upload 上传对象，同名对象直接覆盖。返回公开访问 URL。
	Upload(ctx context.Context, objectName string, data []byte) (string, error)

	// Download 下载对象
	Download(ctx context.Context, objectName string) (io.ReadCloser, error)

	// PublicURL 计算对象的公开访问 URL，不发起请求
	PublicURL(objectName string) string
}

// GCSStore Google Cloud Storage 实现
type GCSStore struct {
	client *storage.Client
	config *config.GCSConfig
}

// NewGCSStore 创建 GCS 存储
func NewGCSStore(ctx context.Context, cfg *config.GCSConfig) (*GCSStore, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCSStore{
		client: client,
		config: cfg,
	}, nil
}

// Upload 上传对象，覆盖写
func (s *GCSStore) Upload(ctx context.Context, objectName string, data []byte) (string, error) {
	ctx, span := tracer.Start(ctx, "objectstore.Upload",
		trace.WithAttributes(
			attribute.String("storage.object", objectName),
			attribute.Int("storage.bytes", len(data)),
		))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.config.Bucket).Object(objectName).NewWriter(ctx)
	if ct := contentTypeFor(objectName); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		span.RecordError(err)
		return "", errors.Wrap(err, errors.CodeStorageError, "failed to write object")
	}
	if err := w.Close(); err != nil {
		span.RecordError(err)
		return "", errors.Wrap(err, errors.CodeStorageError, "failed to finalize object")
	}

	return s.PublicURL(objectName), nil
}

// Download 下载对象
func (s *GCSStore) Download(ctx context.Context, objectName string) (io.ReadCloser, error) {
	ctx, span := tracer.Start(ctx, "objectstore.Download",
		trace.WithAttributes(attribute.String("storage.object", objectName)))
	defer span.End()

	r, err := s.client.Bucket(s.config.Bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, errors.CodeStorageError, "failed to open object")
	}
	return r, nil
}

// PublicURL 计算对象的公开访问 URL
func (s *GCSStore) PublicURL(objectName string) string {
	base := strings.TrimSuffix(s.config.PublicBaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://storage.googleapis.com/%s", s.config.Bucket)
	}
	return base + "/" + objectName
}

// Close 关闭存储客户端
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func contentTypeFor(objectName string) string {
	name := strings.ToLower(objectName)
	switch {
	case strings.HasSuffix(name, ".webp"):
		return "image/webp"
	case strings.HasSuffix(name, ".png"):
		return "image/png"
	case strings.HasSuffix(name, ".jpg"), strings.HasSuffix(name, ".jpeg"):
		return "image/jpeg"
	default:
		return ""
	}
}
