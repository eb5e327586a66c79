package handler

import (
	"context"
	"io"
	"time"

	stderrors "errors"

	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"

	"mirage-codex-api/internal/application/generation"
	"mirage-codex-api/internal/config"
	"mirage-codex-api/internal/domain/repository"
	"mirage-codex-api/internal/interfaces/http/dto"
	wfmodel "mirage-codex-api/internal/workflow/model"
	"mirage-codex-api/pkg/logger"
)

// pageGenerator 生成管线的处理器侧视图
type pageGenerator interface {
	Stream(ctx context.Context, req *generation.StreamRequest) (*schema.StreamReader[*schema.Message], error)
	SavePage(ctx context.Context, req *generation.SaveRequest) (*generation.SaveResult, error)
}

// GenerationHandler 单页生成处理器
type GenerationHandler struct {
	pipeline pageGenerator
	pages    repository.PageRepository
	editions repository.EditionRepository
	genCfg   *config.GenerationConfig
}

// NewGenerationHandler 创建生成处理器
func NewGenerationHandler(
	pipeline *generation.Pipeline,
	pages repository.PageRepository,
	editions repository.EditionRepository,
	genCfg *config.GenerationConfig,
) *GenerationHandler {
	return &GenerationHandler{
		pipeline: pipeline,
		pages:    pages,
		editions: editions,
		genCfg:   genCfg,
	}
}

// streamTimeout 单次生成/保存请求的时长上限
func (h *GenerationHandler) streamTimeout() time.Duration {
	if h.genCfg != nil && h.genCfg.StreamTimeout > 0 {
		return h.genCfg.StreamTimeout
	}
	return 5 * time.Minute
}

// StreamPage 流式生成一页
// @Summary 流式生成一页
// @Description 组装上下文、构建提示词、门控后通过 SSE 流式返回生成内容
// @Tags Generation
// @Produce text/event-stream
// @Param eid path string true "版次 ID"
// @Param num path int true "页码"
// @Success 200 "SSE stream"
// @Failure 402 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/editions/{eid}/pages/{num}/stream [post]
func (h *GenerationHandler) StreamPage(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.streamTimeout())
	defer cancel()

	editionID := dto.BindEditionID(c)
	pageNumber := dto.BindPageNumber(c)
	if pageNumber < 1 {
		dto.BadRequest(c, "invalid page number")
		return
	}

	start := time.Now()
	reader, err := h.pipeline.Stream(ctx, &generation.StreamRequest{
		UserID:     currentUserID(c),
		EditionID:  editionID,
		PageNumber: pageNumber,
	})
	if err != nil {
		respondError(c, err, "failed to start generation")
		return
	}
	defer reader.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	contentCh := make(chan string, 16)
	usageCh := make(chan *wfmodel.LLMUsageMeta, 1)
	errCh := make(chan error, 1)

	// 每次发送都以 ctx 兜底，客户端断开后消费方不再收，
	// 无保护的发送会把这个 goroutine 连同 reader 一起挂死。
	go func() {
		defer close(contentCh)
		defer close(usageCh)
		defer close(errCh)

		for {
			msg, recvErr := reader.Recv()
			if stderrors.Is(recvErr, io.EOF) {
				return
			}
			if recvErr != nil {
				select {
				case errCh <- recvErr:
				case <-ctx.Done():
				}
				return
			}

			if msg.Content != "" {
				select {
				case contentCh <- msg.Content:
				case <-ctx.Done():
					return
				}
			}

			if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
				u := msg.ResponseMeta.Usage
				select {
				case usageCh <- &wfmodel.LLMUsageMeta{
					PromptTokens:     u.PromptTokens,
					CompletionTokens: u.CompletionTokens,
					GeneratedAt:      time.Now().UTC(),
				}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	emitUsage := func(usage *wfmodel.LLMUsageMeta) {
		c.SSEvent("usage", gin.H{
			"prompt_tokens":     usage.PromptTokens,
			"completion_tokens": usage.CompletionTokens,
		})
	}
	emitError := func(streamErr error) {
		logger.Error(ctx, "generation stream failed", streamErr)
		c.SSEvent("error", gin.H{"message": "generation failed"})
	}

	// 三个通道同时关闭时 select 随机选中，contentCh 关闭是唯一的
	// 正常终点。usage/err 先于 contentCh 关闭，终点处把缓冲中残留的
	// 用量和错误冲刷掉再收尾，保证成功流总以 done 结束、失败流总以
	// error 结束。
	index := 0
	c.Stream(func(w io.Writer) bool {
		select {
		case chunk, ok := <-contentCh:
			if !ok {
				select {
				case usage, usageOK := <-usageCh:
					if usageOK {
						emitUsage(usage)
					}
				default:
				}
				select {
				case streamErr, errOK := <-errCh:
					if errOK {
						emitError(streamErr)
						return false
					}
				default:
				}
				c.SSEvent("done", gin.H{
					"edition_id":  editionID,
					"page_number": pageNumber,
					"duration_ms": time.Since(start).Milliseconds(),
				})
				return false
			}
			c.SSEvent("content", gin.H{"chunk": chunk, "index": index})
			index++
			return true

		case usage, ok := <-usageCh:
			if !ok {
				usageCh = nil
				return true
			}
			emitUsage(usage)
			return true

		case streamErr, ok := <-errCh:
			if !ok {
				errCh = nil
				return true
			}
			emitError(streamErr)
			return false

		case <-ctx.Done():
			// 客户端断开或超时：生成不保存任何内容
			return false
		}
	})
}

// SavePage 保存生成完成的页面
// @Summary 保存页面
// @Description 客户端确认流完成后显式保存；首次落页触发原子扣费，重复保存幂等
// @Tags Generation
// @Accept json
// @Produce json
// @Param eid path string true "版次 ID"
// @Param num path int true "页码"
// @Param body body dto.SavePageRequest true "保存请求"
// @Success 200 {object} dto.Response[dto.SavePageResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/editions/{eid}/pages/{num} [post]
func (h *GenerationHandler) SavePage(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.streamTimeout())
	defer cancel()

	editionID := dto.BindEditionID(c)
	pageNumber := dto.BindPageNumber(c)
	if pageNumber < 1 {
		dto.BadRequest(c, "invalid page number")
		return
	}

	var req dto.SavePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := h.pipeline.SavePage(ctx, &generation.SaveRequest{
		UserID:     currentUserID(c),
		EditionID:  editionID,
		PageNumber: pageNumber,
		Content:    req.Content,
	})
	if err != nil {
		respondError(c, err, "failed to save page")
		return
	}

	dto.Success(c, dto.SavePageResponse{
		AlreadySaved: result.AlreadySaved,
		Debited:      result.Debited,
		Cost:         result.Cost,
	})
}

// GetPage 读取已保存的页面
// @Summary 读取页面
// @Tags Generation
// @Produce json
// @Param eid path string true "版次 ID"
// @Param num path int true "页码"
// @Success 200 {object} dto.Response[dto.PageResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/editions/{eid}/pages/{num} [get]
func (h *GenerationHandler) GetPage(c *gin.Context) {
	ctx := c.Request.Context()
	editionID := c.Param("eid")
	pageNumber := dto.BindPageNumber(c)
	if pageNumber < 1 {
		dto.BadRequest(c, "invalid page number")
		return
	}

	page, err := h.pages.GetByEditionAndNumber(ctx, editionID, pageNumber)
	if err != nil {
		respondError(c, err, "failed to get page")
		return
	}
	if page == nil {
		dto.NotFound(c, "page not found")
		return
	}

	dto.Success(c, dto.PageResponse{
		EditionID:  page.EditionID,
		PageNumber: page.PageNumber,
		Content:    page.Content,
		WordCount:  page.WordCount,
		CreatedAt:  page.CreatedAt.Format(time.RFC3339),
	})
}
