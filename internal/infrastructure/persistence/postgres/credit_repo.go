package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mirage-codex-api/internal/config"
	"mirage-codex-api/internal/domain/entity"
	"mirage-codex-api/internal/domain/repository"
)

// CreditRepository 积分仓储实现。
// 检查与扣减收敛在单事务原子操作内，调用方不做读-改-写。
type CreditRepository struct {
	client       *Client
	monthlyGrant int64
}

// NewCreditRepository 创建积分仓储
func NewCreditRepository(client *Client, billing *config.BillingConfig) repository.CreditRepository {
	return &CreditRepository{client: client, monthlyGrant: billing.MonthlyGrant}
}

// GetBalance 获取余额记录
func (r *CreditRepository) GetBalance(ctx context.Context, userID string) (*entity.CreditBalance, error) {
	ctx, span := tracer.Start(ctx, "postgres.CreditRepository.GetBalance")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var balance entity.CreditBalance
	err := db.Where("user_id = ?", userID).First(&balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get credit balance: %w", err)
	}
	return &balance, nil
}

// EnsureBalance 计费引导：记录不存在时按月度授予创建，幂等。
// 并发首次调用靠主键冲突收敛到同一行。
func (r *CreditRepository) EnsureBalance(ctx context.Context, userID string, monthlyGrant int64) (*entity.CreditBalance, error) {
	ctx, span := tracer.Start(ctx, "postgres.CreditRepository.EnsureBalance")
	defer span.End()

	db := getDB(ctx, r.client.db)
	now := time.Now()
	balance := &entity.CreditBalance{
		UserID:         userID,
		Balance:        monthlyGrant,
		MonthlyResetAt: now.AddDate(0, 1, 0),
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(balance).Error
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to ensure credit balance: %w", err)
	}

	return r.GetBalance(ctx, userID)
}

// HasBalance 只读断言余额是否足以支付 cost。不锁定、不预留。
func (r *CreditRepository) HasBalance(ctx context.Context, userID string, cost int64) (bool, int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.CreditRepository.HasBalance")
	defer span.End()

	balance, err := r.GetBalance(ctx, userID)
	if err != nil {
		return false, 0, err
	}
	if balance == nil {
		return false, 0, nil
	}

	// 已过重置时间的余额按重置后的有效值判定，与扣减路径的重置逻辑一致
	effective := balance.Balance
	if balance.NeedsReset(time.Now()) && effective < r.monthlyGrant {
		effective = r.monthlyGrant
	}
	return effective >= cost, balance.Balance, nil
}

// DebitIfAffordable 单事务内完成行锁读取、月度重置、余额校验、扣减与流水写入。
// 余额不足返回 repository.ErrInsufficientBalance，事务回滚。
func (r *CreditRepository) DebitIfAffordable(ctx context.Context, userID string, cost int64, reason, refID string) error {
	ctx, span := tracer.Start(ctx, "postgres.CreditRepository.DebitIfAffordable")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Transaction(func(tx *gorm.DB) error {
		var balance entity.CreditBalance
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&balance).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repository.ErrInsufficientBalance
			}
			return fmt.Errorf("failed to lock credit balance: %w", err)
		}

		now := time.Now()
		if balance.NeedsReset(now) {
			// 月度重置：补足授予额并推进重置时间，与扣减同事务生效
			grant := r.monthlyGrantDelta(&balance)
			balance.Balance += grant
			balance.MonthlyResetAt = nextResetAfter(balance.MonthlyResetAt, now)
			if grant > 0 {
				grantTx := &entity.CreditTransaction{
					UserID: userID,
					Kind:   entity.TransactionKindGrant,
					Amount: grant,
					Reason: "monthly_reset",
				}
				if err := tx.Create(grantTx).Error; err != nil {
					return fmt.Errorf("failed to record grant transaction: %w", err)
				}
			}
		}

		if balance.Balance < cost {
			return repository.ErrInsufficientBalance
		}

		balance.Balance -= cost
		if err := tx.Model(&entity.CreditBalance{}).
			Where("user_id = ?", userID).
			Updates(map[string]any{
				"balance":          balance.Balance,
				"monthly_reset_at": balance.MonthlyResetAt,
			}).Error; err != nil {
			return fmt.Errorf("failed to debit credit balance: %w", err)
		}

		debitTx := &entity.CreditTransaction{
			UserID: userID,
			Kind:   entity.TransactionKindDebit,
			Amount: cost,
			Reason: reason,
			RefID:  refID,
		}
		if err := tx.Create(debitTx).Error; err != nil {
			return fmt.Errorf("failed to record debit transaction: %w", err)
		}
		return nil
	})
	if err != nil && !errors.Is(err, repository.ErrInsufficientBalance) {
		span.RecordError(err)
	}
	return err
}

// monthlyGrantDelta 重置时补到授予额，余额高于授予额时不扣回
func (r *CreditRepository) monthlyGrantDelta(balance *entity.CreditBalance) int64 {
	if balance.Balance >= r.monthlyGrant {
		return 0
	}
	return r.monthlyGrant - balance.Balance
}

// nextResetAfter 将重置时间按月推进到 now 之后
func nextResetAfter(resetAt, now time.Time) time.Time {
	next := resetAt
	for !next.After(now) {
		next = next.AddDate(0, 1, 0)
	}
	return next
}
