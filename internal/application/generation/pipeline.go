package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mirage-codex-api/internal/application/billing"
	"mirage-codex-api/internal/config"
	"mirage-codex-api/internal/domain/entity"
	"mirage-codex-api/internal/domain/repository"
	"mirage-codex-api/internal/workflow/chain"
	wfmodel "mirage-codex-api/internal/workflow/model"
	apperrors "mirage-codex-api/pkg/errors"
	"mirage-codex-api/pkg/logger"
	"mirage-codex-api/pkg/metrics"
)

// Pipeline 单页生成管线。
// 请求内步骤严格顺序：组装 -> 构建提示词 -> 门控 -> 生成；
// 保存与扣费是独立的显式操作，扣费只在首次成功落页后发生。
type Pipeline struct {
	assembler *Assembler
	gate      *billing.Gate
	chain     *chain.PageChain
	pages     repository.PageRepository
	models    repository.ModelRepository
	credits   repository.CreditRepository
	editions  repository.EditionRepository

	llm        *config.LLMConfig
	billingCfg *config.BillingConfig
	genCfg     *config.GenerationConfig
	features   *config.FeaturesConfig
}

// NewPipeline 创建生成管线
func NewPipeline(
	assembler *Assembler,
	gate *billing.Gate,
	pageChain *chain.PageChain,
	pages repository.PageRepository,
	models repository.ModelRepository,
	credits repository.CreditRepository,
	editions repository.EditionRepository,
	cfg *config.Config,
) *Pipeline {
	return &Pipeline{
		assembler:  assembler,
		gate:       gate,
		chain:      pageChain,
		pages:      pages,
		models:     models,
		credits:    credits,
		editions:   editions,
		llm:        &cfg.LLM,
		billingCfg: &cfg.Billing,
		genCfg:     &cfg.Generation,
		features:   &cfg.Features,
	}
}

// Stream 流式生成一页。返回 Eino StreamReader，调用方负责 Close()。
// 这里不扣费：扣费绑定在保存路径上。
func (p *Pipeline) Stream(ctx context.Context, req *StreamRequest) (*schema.StreamReader[*schema.Message], error) {
	ctx, span := tracer.Start(ctx, "generation.Pipeline.Stream",
		trace.WithAttributes(
			attribute.String("edition_id", req.EditionID),
			attribute.Int("page_number", req.PageNumber),
		))
	defer span.End()

	pc, err := p.assembler.Assemble(ctx, req.EditionID, req.PageNumber)
	if err != nil {
		return nil, err
	}

	model, err := p.resolveModel(ctx, pc.Edition.ModelSlug)
	if err != nil {
		return nil, err
	}

	prompt := BuildPagePrompt(&PromptInput{
		Context:              pc,
		TargetWords:          p.targetWords(pc),
		IllustrationsEnabled: p.features.Illustrations.Enabled,
	})

	if _, err := p.gate.Check(ctx, req.UserID, model.Slug); err != nil {
		return nil, err
	}

	turns := make([]wfmodel.PageTurn, 0, len(pc.PriorTurns))
	for _, t := range pc.PriorTurns {
		turns = append(turns, wfmodel.PageTurn{PageNumber: t.PageNumber, Content: t.Content})
	}

	start := time.Now()
	stream, err := p.chain.Stream(ctx, &wfmodel.PageGenerateInput{
		Provider:     model.Provider,
		Model:        model.Slug,
		SystemPrompt: prompt,
		Turns:        turns,
		PageNumber:   req.PageNumber,
	})
	if err != nil {
		span.RecordError(err)
		metrics.PageGenerationTotal.WithLabelValues(model.Slug, "error").Inc()
		return nil, apperrors.Wrap(err, apperrors.CodeLLMCallFailed, "failed to start generation stream")
	}

	metrics.PageGenerationTotal.WithLabelValues(model.Slug, "started").Inc()

	// 用量消息随流尾到达，顺带作为整段生成耗时的观测点
	return schema.StreamReaderWithConvert(stream, func(msg *schema.Message) (*schema.Message, error) {
		if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
			u := msg.ResponseMeta.Usage
			metrics.LLMTokensUsed.WithLabelValues(model.Provider, model.Slug, "prompt").Add(float64(u.PromptTokens))
			metrics.LLMTokensUsed.WithLabelValues(model.Provider, model.Slug, "completion").Add(float64(u.CompletionTokens))
			metrics.PageGenerationDuration.WithLabelValues(model.Slug).Observe(time.Since(start).Seconds())
		}
		return msg, nil
	}), nil
}

// SavePage 持久化生成完成的页面，并在首次落页后原子扣费。
// 重复保存命中唯一约束时按幂等成功处理，不触发第二次扣费。
// 扣费失败不回滚已保存的页面，只记录差异。
func (p *Pipeline) SavePage(ctx context.Context, req *SaveRequest) (*SaveResult, error) {
	ctx, span := tracer.Start(ctx, "generation.Pipeline.SavePage",
		trace.WithAttributes(
			attribute.String("edition_id", req.EditionID),
			attribute.Int("page_number", req.PageNumber),
		))
	defer span.End()

	log := logger.FromContext(ctx)

	if req.Content == "" {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "page content is empty")
	}

	edition, err := p.editions.GetByID(ctx, req.EditionID)
	if err != nil {
		return nil, err
	}
	if edition == nil {
		return nil, apperrors.ErrEditionNotFound
	}

	model, err := p.resolveModel(ctx, edition.ModelSlug)
	if err != nil {
		return nil, err
	}
	cost := p.billingCfg.PageCost(model.Slug)

	page := entity.NewPage(req.EditionID, req.PageNumber, req.Content)
	if err := p.pages.Insert(ctx, page); err != nil {
		if errors.Is(err, repository.ErrDuplicatePage) {
			metrics.PageSaveTotal.WithLabelValues("duplicate").Inc()
			log.Info("page already saved, skipping debit",
				"edition_id", req.EditionID,
				"page_number", req.PageNumber,
			)
			return &SaveResult{AlreadySaved: true, Cost: cost}, nil
		}
		metrics.PageSaveTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		return nil, err
	}

	metrics.PageSaveTotal.WithLabelValues("saved").Inc()

	// 自带 Key 免计费
	decision, err := p.gate.Check(ctx, req.UserID, model.Slug)
	if err == nil && decision.CostOwed == 0 {
		return &SaveResult{Cost: 0}, nil
	}

	refID := fmt.Sprintf("page:%s:%d", req.EditionID, req.PageNumber)
	if err := p.credits.DebitIfAffordable(ctx, req.UserID, cost, "page_generation", refID); err != nil {
		// 保存已成功，扣费失败不回滚：页面保留，差异记录在案
		metrics.CreditDebitTotal.WithLabelValues(model.Slug, "failed").Inc()
		log.Error("credit debit failed after successful save",
			"error", err,
			"user_id", req.UserID,
			"edition_id", req.EditionID,
			"page_number", req.PageNumber,
			"cost", cost,
		)
		return &SaveResult{Cost: cost}, nil
	}

	metrics.CreditDebitTotal.WithLabelValues(model.Slug, "ok").Inc()
	return &SaveResult{Debited: true, Cost: cost}, nil
}

func (p *Pipeline) resolveModel(ctx context.Context, slug string) (*entity.AIModel, error) {
	model, err := p.models.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if model == nil {
		return nil, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("model %s not registered", slug))
	}
	if !model.Enabled {
		return nil, apperrors.New(apperrors.CodeInvalidParam, fmt.Sprintf("model %s is disabled", slug))
	}
	return model, nil
}

func (p *Pipeline) targetWords(pc *PageContext) int {
	return pc.Genre.PageWords(p.genCfg.DefaultPageWords)
}
