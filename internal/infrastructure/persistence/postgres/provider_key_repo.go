package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"mirage-codex-api/internal/domain/entity"
	"mirage-codex-api/internal/domain/repository"
)

// ProviderKeyRepository 自带 Key 仓储实现
type ProviderKeyRepository struct {
	client *Client
}

// NewProviderKeyRepository 创建自带 Key 仓储
func NewProviderKeyRepository(client *Client) repository.ProviderKeyRepository {
	return &ProviderKeyRepository{client: client}
}

// HasKey 检查用户是否为指定提供商登记了自带 Key
func (r *ProviderKeyRepository) HasKey(ctx context.Context, userID, provider string) (bool, error) {
	ctx, span := tracer.Start(ctx, "postgres.ProviderKeyRepository.HasKey")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var count int64
	err := db.Model(&entity.ProviderKey{}).
		Where("user_id = ? AND provider = ?", userID, provider).
		Count(&count).Error
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("failed to check provider key: %w", err)
	}
	return count > 0, nil
}

// ModelRepository 生成模型注册表实现
type ModelRepository struct {
	client *Client
}

// NewModelRepository 创建模型注册表仓储
func NewModelRepository(client *Client) repository.ModelRepository {
	return &ModelRepository{client: client}
}

// GetBySlug 获取模型项
func (r *ModelRepository) GetBySlug(ctx context.Context, slug string) (*entity.AIModel, error) {
	ctx, span := tracer.Start(ctx, "postgres.ModelRepository.GetBySlug")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var model entity.AIModel
	err := db.Where("slug = ?", slug).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get model: %w", err)
	}
	return &model, nil
}
