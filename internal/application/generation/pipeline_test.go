package generation

import (
	"context"
	stderrors "errors"
	"io"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirage-codex-api/internal/application/billing"
	"mirage-codex-api/internal/config"
	"mirage-codex-api/internal/domain/entity"
	"mirage-codex-api/internal/domain/repository"
	"mirage-codex-api/internal/workflow/chain"
	"mirage-codex-api/pkg/errors"
)

type fakeChatModel struct {
	streamCalls  int
	lastMessages []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	f.lastMessages = input
	return schema.AssistantMessage("generated page", nil), nil
}

func (f *fakeChatModel) Stream(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	f.streamCalls++
	f.lastMessages = input

	sr, sw := schema.Pipe[*schema.Message](2)
	go func() {
		defer sw.Close()
		sw.Send(schema.AssistantMessage("The lamp ", nil), nil)
		sw.Send(schema.AssistantMessage("went dark.", nil), nil)
	}()
	return sr, nil
}

type fakeModelFactory struct {
	model *fakeChatModel
}

func (f *fakeModelFactory) Get(_ context.Context, _ string) (einomodel.BaseChatModel, error) {
	return f.model, nil
}

type pipelineFixture struct {
	pipeline  *Pipeline
	chatModel *fakeChatModel
	pages     *fakePageRepo
	credits   *fakeCreditRepo
	keys      *fakeProviderKeyRepo
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	cfg := &config.Config{
		Billing: config.BillingConfig{
			DefaultPageCost: 5,
			MonthlyGrant:    100,
		},
		Generation: config.GenerationConfig{
			ContextWindowPages: 3,
			DefaultPageWords:   350,
		},
		Features: config.FeaturesConfig{
			Illustrations: config.IllustrationsFeature{Enabled: true},
		},
	}

	pages := &fakePageRepo{pages: map[string]map[int]*entity.Page{}}
	credits := &fakeCreditRepo{balance: 50}
	keys := &fakeProviderKeyRepo{keys: map[string]bool{}}
	models := &fakeModelRepo{models: map[string]*entity.AIModel{
		"gpt-4o-mini": {Slug: "gpt-4o-mini", Provider: "openai", Enabled: true},
	}}

	assembler := newTestAssembler(t, pages, nil, nil)
	gate := billing.NewGate(credits, keys, models, &cfg.Billing)
	chatModel := &fakeChatModel{}
	pageChain := chain.NewPageChain(&fakeModelFactory{model: chatModel})

	editions := &fakeEditionRepo{editions: map[string]*entity.Edition{
		"ed-1": {ID: "ed-1", BookID: "book-1", Language: "en", ModelSlug: "gpt-4o-mini"},
	}}

	return &pipelineFixture{
		pipeline:  NewPipeline(assembler, gate, pageChain, pages, models, credits, editions, cfg),
		chatModel: chatModel,
		pages:     pages,
		credits:   credits,
		keys:      keys,
	}
}

func TestStreamDoesNotDebit(t *testing.T) {
	f := newPipelineFixture(t)

	reader, err := f.pipeline.Stream(context.Background(), &StreamRequest{
		UserID:     "user-1",
		EditionID:  "ed-1",
		PageNumber: 1,
	})
	require.NoError(t, err)
	defer reader.Close()

	for {
		_, err := reader.Recv()
		if stderrors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
	}

	assert.Equal(t, 1, f.chatModel.streamCalls)
	assert.Empty(t, f.credits.debits, "streaming must not touch the balance")
	assert.Empty(t, f.pages.inserted, "streaming must not persist a page")
}

func TestStreamSendsSystemPromptAndHistory(t *testing.T) {
	f := newPipelineFixture(t)
	f.pages.pages["ed-1"] = map[int]*entity.Page{
		2: {PageNumber: 2, Content: "page two"},
	}

	reader, err := f.pipeline.Stream(context.Background(), &StreamRequest{
		UserID:     "user-1",
		EditionID:  "ed-1",
		PageNumber: 3,
	})
	require.NoError(t, err)
	reader.Close()

	msgs := f.chatModel.lastMessages
	// system + 一轮历史（user/assistant）+ 本页请求
	require.Len(t, msgs, 4)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "The Hollow Lighthouse")
	assert.Equal(t, "Write page 2.", msgs[1].Content)
	assert.Equal(t, "page two", msgs[2].Content)
	assert.Equal(t, "Write page 3.", msgs[3].Content)
}

func TestStreamInsufficientCredits(t *testing.T) {
	f := newPipelineFixture(t)
	f.credits.balance = 2

	_, err := f.pipeline.Stream(context.Background(), &StreamRequest{
		UserID:     "user-1",
		EditionID:  "ed-1",
		PageNumber: 1,
	})

	var insufficient *errors.InsufficientCreditsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(5), insufficient.Required)
	assert.Equal(t, int64(2), insufficient.Balance)
	assert.Zero(t, f.chatModel.streamCalls, "denied request must not reach the model")
}

func TestStreamWithProviderKeyBypassesBalance(t *testing.T) {
	f := newPipelineFixture(t)
	f.credits.balance = 0
	f.keys.keys["user-1/openai"] = true

	reader, err := f.pipeline.Stream(context.Background(), &StreamRequest{
		UserID:     "user-1",
		EditionID:  "ed-1",
		PageNumber: 1,
	})
	require.NoError(t, err)
	reader.Close()
}

func TestSavePageDebitsOnce(t *testing.T) {
	f := newPipelineFixture(t)

	result, err := f.pipeline.SavePage(context.Background(), &SaveRequest{
		UserID:     "user-1",
		EditionID:  "ed-1",
		PageNumber: 1,
		Content:    "The lamp went dark.",
	})
	require.NoError(t, err)

	assert.False(t, result.AlreadySaved)
	assert.True(t, result.Debited)
	assert.Equal(t, int64(5), result.Cost)

	require.Len(t, f.credits.debits, 1)
	assert.Equal(t, "user-1", f.credits.debits[0].userID)
	assert.Equal(t, int64(5), f.credits.debits[0].cost)
	assert.Equal(t, "page_generation", f.credits.debits[0].reason)
	assert.Equal(t, "page:ed-1:1", f.credits.debits[0].refID)

	require.Len(t, f.pages.inserted, 1)
	assert.Equal(t, "ed-1", f.pages.inserted[0].EditionID)
}

func TestSavePageDuplicateIsIdempotent(t *testing.T) {
	f := newPipelineFixture(t)
	f.pages.insertErr = repository.ErrDuplicatePage

	result, err := f.pipeline.SavePage(context.Background(), &SaveRequest{
		UserID:     "user-1",
		EditionID:  "ed-1",
		PageNumber: 1,
		Content:    "The lamp went dark.",
	})
	require.NoError(t, err)

	assert.True(t, result.AlreadySaved)
	assert.False(t, result.Debited)
	assert.Empty(t, f.credits.debits, "duplicate save must not debit again")
}

func TestSavePageWithProviderKeySkipsDebit(t *testing.T) {
	f := newPipelineFixture(t)
	f.keys.keys["user-1/openai"] = true

	result, err := f.pipeline.SavePage(context.Background(), &SaveRequest{
		UserID:     "user-1",
		EditionID:  "ed-1",
		PageNumber: 1,
		Content:    "The lamp went dark.",
	})
	require.NoError(t, err)

	assert.False(t, result.Debited)
	assert.Zero(t, result.Cost)
	assert.Empty(t, f.credits.debits)
	require.Len(t, f.pages.inserted, 1)
}

func TestSavePageKeepsPageWhenDebitFails(t *testing.T) {
	f := newPipelineFixture(t)
	f.credits.debitErr = repository.ErrInsufficientBalance

	result, err := f.pipeline.SavePage(context.Background(), &SaveRequest{
		UserID:     "user-1",
		EditionID:  "ed-1",
		PageNumber: 1,
		Content:    "The lamp went dark.",
	})
	require.NoError(t, err)

	assert.False(t, result.Debited)
	assert.Equal(t, int64(5), result.Cost)
	require.Len(t, f.pages.inserted, 1, "page stays saved even when the debit fails")
}

func TestSavePageRejectsEmptyContent(t *testing.T) {
	f := newPipelineFixture(t)

	_, err := f.pipeline.SavePage(context.Background(), &SaveRequest{
		UserID:     "user-1",
		EditionID:  "ed-1",
		PageNumber: 1,
	})
	assert.Error(t, err)
	assert.Empty(t, f.pages.inserted)
}
