package billing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirage-codex-api/internal/config"
	"mirage-codex-api/internal/domain/entity"
	"mirage-codex-api/pkg/errors"
)

type stubCredits struct {
	balance     int64
	ensureCalls int
}

func (s *stubCredits) GetBalance(_ context.Context, userID string) (*entity.CreditBalance, error) {
	return &entity.CreditBalance{UserID: userID, Balance: s.balance}, nil
}

func (s *stubCredits) EnsureBalance(_ context.Context, userID string, grant int64) (*entity.CreditBalance, error) {
	s.ensureCalls++
	return &entity.CreditBalance{UserID: userID, Balance: grant}, nil
}

func (s *stubCredits) HasBalance(_ context.Context, _ string, cost int64) (bool, int64, error) {
	return s.balance >= cost, s.balance, nil
}

func (s *stubCredits) DebitIfAffordable(_ context.Context, _ string, cost int64, _, _ string) error {
	s.balance -= cost
	return nil
}

type stubProviderKeys struct {
	has bool
}

func (s *stubProviderKeys) HasKey(_ context.Context, _, _ string) (bool, error) {
	return s.has, nil
}

type stubModels struct {
	models map[string]*entity.AIModel
}

func (s *stubModels) GetBySlug(_ context.Context, slug string) (*entity.AIModel, error) {
	return s.models[slug], nil
}

func newTestGate(credits *stubCredits, keys *stubProviderKeys) *Gate {
	models := &stubModels{models: map[string]*entity.AIModel{
		"gpt-4o-mini": {Slug: "gpt-4o-mini", Provider: "openai", Enabled: true},
	}}
	cfg := &config.BillingConfig{
		PageCosts:       map[string]int64{"gpt-4o-mini": 5},
		DefaultPageCost: 3,
		MonthlyGrant:    100,
	}
	return NewGate(credits, keys, models, cfg)
}

func TestCheckAllowsWhenBalanceCovers(t *testing.T) {
	gate := newTestGate(&stubCredits{balance: 10}, &stubProviderKeys{})

	decision, err := gate.Check(context.Background(), "user-1", "gpt-4o-mini")
	require.NoError(t, err)

	assert.True(t, decision.Allowed)
	assert.Equal(t, int64(5), decision.CostOwed)
}

func TestCheckDeniesWhenBalanceShort(t *testing.T) {
	gate := newTestGate(&stubCredits{balance: 2}, &stubProviderKeys{})

	_, err := gate.Check(context.Background(), "user-1", "gpt-4o-mini")

	var insufficient *errors.InsufficientCreditsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(5), insufficient.Required)
	assert.Equal(t, int64(2), insufficient.Balance)
}

func TestCheckProviderKeyWaivesCost(t *testing.T) {
	// 零余额也放行：自带 Key 的调用不消耗积分
	gate := newTestGate(&stubCredits{balance: 0}, &stubProviderKeys{has: true})

	decision, err := gate.Check(context.Background(), "user-1", "gpt-4o-mini")
	require.NoError(t, err)

	assert.True(t, decision.Allowed)
	assert.Zero(t, decision.CostOwed)
}

func TestCheckUnknownModel(t *testing.T) {
	gate := newTestGate(&stubCredits{balance: 100}, &stubProviderKeys{})

	_, err := gate.Check(context.Background(), "user-1", "no-such-model")
	assert.Error(t, err)
}

func TestBootstrapIsIdempotent(t *testing.T) {
	credits := &stubCredits{}
	gate := newTestGate(credits, &stubProviderKeys{})

	require.NoError(t, gate.Bootstrap(context.Background(), "user-1"))
	require.NoError(t, gate.Bootstrap(context.Background(), "user-1"))
	assert.Equal(t, 2, credits.ensureCalls)
}
