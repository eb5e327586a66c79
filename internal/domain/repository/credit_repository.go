// Package repository 定义数据访问层接口
package repository

import (
	"context"
	"errors"

	"mirage-codex-api/internal/domain/entity"
)

// ErrInsufficientBalance 余额不足，由原子扣减操作返回
var ErrInsufficientBalance = errors.New("insufficient credit balance")

// ErrDuplicatePage 页面已存在（唯一约束冲突），保存路径据此判定幂等命中
var ErrDuplicatePage = errors.New("page already exists")

// CreditRepository 积分仓储接口。
// 余额的检查与扣减是这里的原子操作，管线层不做读-改-写。
type CreditRepository interface {
	// GetBalance 获取余额记录，不存在时返回 (nil, nil)
	GetBalance(ctx context.Context, userID string) (*entity.CreditBalance, error)

	// EnsureBalance 计费引导：余额记录不存在时按计划授予创建，幂等。
	EnsureBalance(ctx context.Context, userID string, monthlyGrant int64) (*entity.CreditBalance, error)

	// HasBalance 只读断言：余额是否足以支付 cost。不锁定、不预留。
	HasBalance(ctx context.Context, userID string, cost int64) (bool, int64, error)

	// DebitIfAffordable 单事务内完成：行锁读取余额 -> 月度重置检查 ->
	// 余额校验 -> 扣减 -> 写入流水。余额不足返回 ErrInsufficientBalance。
	DebitIfAffordable(ctx context.Context, userID string, cost int64, reason, refID string) error
}

// ProviderKeyRepository 自带 Key 仓储接口
type ProviderKeyRepository interface {
	// HasKey 检查用户是否为指定提供商登记了自带 Key
	HasKey(ctx context.Context, userID, provider string) (bool, error)
}

// ModelRepository 生成模型注册表接口
type ModelRepository interface {
	// GetBySlug 获取模型项，不存在时返回 (nil, nil)
	GetBySlug(ctx context.Context, slug string) (*entity.AIModel, error)
}
