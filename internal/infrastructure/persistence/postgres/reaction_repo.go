package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"mirage-codex-api/internal/domain/entity"
	"mirage-codex-api/internal/domain/repository"
)

// ReactionRepository 互动仓储实现
type ReactionRepository struct {
	client *Client
}

// NewReactionRepository 创建互动仓储
func NewReactionRepository(client *Client) repository.ReactionRepository {
	return &ReactionRepository{client: client}
}

// Toggle 翻转互动状态。存在行与反规范化计数器在同一事务内维护，
// 并发重复翻转靠唯一约束与删除行数收敛。
func (r *ReactionRepository) Toggle(ctx context.Context, userID, bookID string, kind entity.ReactionKind) (bool, error) {
	ctx, span := tracer.Start(ctx, "postgres.ReactionRepository.Toggle")
	defer span.End()

	var active bool
	db := getDB(ctx, r.client.db)
	err := db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND book_id = ? AND kind = ?", userID, bookID, kind).
			Delete(&entity.Reaction{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete reaction: %w", result.Error)
		}

		if result.RowsAffected > 0 {
			active = false
			return r.adjustCounter(tx, bookID, kind, -1)
		}

		reaction := &entity.Reaction{
			UserID: userID,
			BookID: bookID,
			Kind:   kind,
		}
		if err := tx.Create(reaction).Error; err != nil {
			if isUniqueViolation(err) {
				// 并发翻转已经激活了该互动，本次视为已激活
				active = true
				return nil
			}
			return fmt.Errorf("failed to create reaction: %w", err)
		}
		active = true
		return r.adjustCounter(tx, bookID, kind, 1)
	})
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	return active, nil
}

// adjustCounter 维护书籍上的反规范化计数器，目前只有点赞计数
func (r *ReactionRepository) adjustCounter(tx *gorm.DB, bookID string, kind entity.ReactionKind, delta int64) error {
	if kind != entity.ReactionKindLike {
		return nil
	}
	err := tx.Model(&entity.Book{}).
		Where("id = ?", bookID).
		UpdateColumn("like_count", gorm.Expr("GREATEST(like_count + ?, 0)", delta)).Error
	if err != nil {
		return fmt.Errorf("failed to adjust like count: %w", err)
	}
	return nil
}
