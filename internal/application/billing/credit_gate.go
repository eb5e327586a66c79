// Package billing 实现积分门控与计费引导
package billing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mirage-codex-api/internal/config"
	"mirage-codex-api/internal/domain/repository"
	"mirage-codex-api/pkg/errors"
	"mirage-codex-api/pkg/metrics"
)

var tracer = otel.Tracer("billing")

// Decision 门控判定结果
type Decision struct {
	Allowed bool
	// CostOwed 保存时需要扣减的积分；自带 Key 免计费时为 0
	CostOwed int64
}

// Gate 积分门控。只读判定，不锁定也不预留余额；
// 真正的扣减在保存路径上以单事务原子操作完成。
type Gate struct {
	credits      repository.CreditRepository
	providerKeys repository.ProviderKeyRepository
	models       repository.ModelRepository
	billing      *config.BillingConfig
}

// NewGate 创建积分门控
func NewGate(
	credits repository.CreditRepository,
	providerKeys repository.ProviderKeyRepository,
	models repository.ModelRepository,
	billing *config.BillingConfig,
) *Gate {
	return &Gate{
		credits:      credits,
		providerKeys: providerKeys,
		models:       models,
		billing:      billing,
	}
}

// Check 判定用户能否为指定模型生成一页。
// 余额不足返回 InsufficientCreditsError，携带所需成本。
func (g *Gate) Check(ctx context.Context, userID, modelSlug string) (*Decision, error) {
	ctx, span := tracer.Start(ctx, "billing.Gate.Check",
		trace.WithAttributes(
			attribute.String("user_id", userID),
			attribute.String("model_slug", modelSlug),
		))
	defer span.End()

	cost := g.billing.PageCost(modelSlug)

	// 自带 Key 免计费
	model, err := g.models.GetBySlug(ctx, modelSlug)
	if err != nil {
		return nil, err
	}
	if model == nil {
		return nil, errors.New(errors.CodeNotFound, "model not found")
	}

	hasKey, err := g.providerKeys.HasKey(ctx, userID, model.Provider)
	if err != nil {
		return nil, err
	}
	if hasKey {
		span.SetAttributes(attribute.Bool("billing.byo_key", true))
		return &Decision{Allowed: true, CostOwed: 0}, nil
	}

	ok, balance, err := g.credits.HasBalance(ctx, userID, cost)
	if err != nil {
		return nil, err
	}
	if !ok {
		span.SetAttributes(
			attribute.Bool("billing.allowed", false),
			attribute.Int64("billing.balance", balance),
			attribute.Int64("billing.cost", cost),
		)
		metrics.CreditGateDenials.WithLabelValues(modelSlug).Inc()
		return nil, errors.NewInsufficientCredits(cost, balance)
	}

	return &Decision{Allowed: true, CostOwed: cost}, nil
}

// Bootstrap 计费引导：确保用户有余额记录，幂等。
func (g *Gate) Bootstrap(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "billing.Gate.Bootstrap",
		trace.WithAttributes(attribute.String("user_id", userID)))
	defer span.End()

	_, err := g.credits.EnsureBalance(ctx, userID, g.billing.MonthlyGrant)
	return err
}
