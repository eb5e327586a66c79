package handler

import (
	"github.com/gin-gonic/gin"

	"mirage-codex-api/internal/application/illustration"
	"mirage-codex-api/internal/config"
	"mirage-codex-api/internal/interfaces/http/dto"
)

// ImageHandler 插图与封面处理器
type ImageHandler struct {
	memoizer *illustration.Memoizer
	covers   *illustration.Covers
	features *config.FeaturesConfig
}

// NewImageHandler 创建插图处理器
func NewImageHandler(
	memoizer *illustration.Memoizer,
	covers *illustration.Covers,
	features *config.FeaturesConfig,
) *ImageHandler {
	return &ImageHandler{
		memoizer: memoizer,
		covers:   covers,
		features: features,
	}
}

// EnsurePageImage 确保页面插图存在
// @Summary 页面插图
// @Description 按内容哈希幂等：命中直接返回已有图像（允许匿名），未命中需要身份并触发生成
// @Tags Images
// @Produce json
// @Param book_id query string true "书籍 ID"
// @Param edition_id query string true "版次 ID"
// @Param page_number query int true "页码"
// @Param prompt query string true "场景提示词"
// @Success 200 {object} dto.Response[dto.ImageResponse]
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/images/page [get]
func (h *ImageHandler) EnsurePageImage(c *gin.Context) {
	ctx := c.Request.Context()

	if h.features == nil || !h.features.Illustrations.Enabled {
		dto.NotFound(c, "page illustrations are disabled")
		return
	}

	var req dto.EnsurePageImageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		dto.BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}

	ref, err := h.memoizer.Ensure(ctx, &illustration.EnsureRequest{
		UserID:     currentUserID(c),
		BookID:     req.BookID,
		EditionID:  req.EditionID,
		PageNumber: req.PageNumber,
		Prompt:     req.Prompt,
	})
	if err != nil {
		respondError(c, err, "failed to ensure page image")
		return
	}

	dto.Success(c, dto.ImageResponse{
		Hash:   ref.Hash,
		URL:    ref.URL,
		Reused: ref.Reused,
	})
}

// EnsureCover 确保书籍封面存在
// @Summary 书籍封面
// @Description 一书一封面；已有封面直接返回，force 时重新生成并覆盖
// @Tags Images
// @Accept json
// @Produce json
// @Param bid path string true "书籍 ID"
// @Param body body dto.EnsureCoverRequest true "封面请求"
// @Success 200 {object} dto.Response[dto.ImageResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/books/{bid}/cover [post]
func (h *ImageHandler) EnsureCover(c *gin.Context) {
	ctx := c.Request.Context()
	bookID := dto.BindBookID(c)

	var req dto.EnsureCoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	url, err := h.covers.Ensure(ctx, currentUserID(c), bookID, req.Prompt, req.Force)
	if err != nil {
		respondError(c, err, "failed to ensure cover")
		return
	}

	dto.Success(c, dto.ImageResponse{URL: url})
}
