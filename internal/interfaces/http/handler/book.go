package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"mirage-codex-api/internal/application/catalog"
	"mirage-codex-api/internal/domain/entity"
	"mirage-codex-api/internal/domain/repository"
	"mirage-codex-api/internal/infrastructure/messaging"
	"mirage-codex-api/internal/interfaces/http/dto"
)

// BookHandler 书架处理器
type BookHandler struct {
	catalog *catalog.Service
}

// NewBookHandler 创建书架处理器
func NewBookHandler(catalogSvc *catalog.Service) *BookHandler {
	return &BookHandler{catalog: catalogSvc}
}

// ListBooks 浏览/检索书架
// @Summary 浏览书架
// @Tags Books
// @Produce json
// @Param genre query string false "体裁 slug"
// @Param language query string false "语言"
// @Param q query string false "标题/摘要模糊检索"
// @Param tags query []string false "检索标签"
// @Success 200 {object} dto.Response[[]dto.BookResponse]
// @Router /v1/books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ListBooksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		dto.BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}

	filter := &repository.BookFilter{
		GenreSlug: req.Genre,
		Language:  req.Language,
		Query:     req.Query,
		TagLabels: req.Tags,
	}

	result, err := h.catalog.ListBooks(ctx, filter, repository.NewPagination(req.Page, req.PageSize))
	if err != nil {
		respondError(c, err, "failed to list books")
		return
	}

	items := make([]dto.BookResponse, 0, len(result.Items))
	for _, book := range result.Items {
		items = append(items, toBookResponse(book))
	}

	meta := dto.NewPageMeta(result.Page, result.PageSize, int(result.Total))
	dto.SuccessWithPage(c, items, meta)
}

// GetBook 书籍详情
// @Summary 书籍详情
// @Tags Books
// @Produce json
// @Param bid path string true "书籍 ID"
// @Success 200 {object} dto.Response[catalog.BookDetail]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/books/{bid} [get]
func (h *BookHandler) GetBook(c *gin.Context) {
	ctx := c.Request.Context()
	bookID := dto.BindBookID(c)

	detail, err := h.catalog.GetBook(ctx, bookID)
	if err != nil {
		respondError(c, err, "failed to get book")
		return
	}

	dto.Success(c, detail)
}

// ListSections 书籍章节大纲
// @Summary 章节大纲
// @Tags Books
// @Produce json
// @Param bid path string true "书籍 ID"
// @Success 200 {object} dto.Response[[]entity.Section]
// @Router /v1/books/{bid}/sections [get]
func (h *BookHandler) ListSections(c *gin.Context) {
	ctx := c.Request.Context()
	bookID := dto.BindBookID(c)

	sections, err := h.catalog.ListSections(ctx, bookID)
	if err != nil {
		respondError(c, err, "failed to list sections")
		return
	}

	dto.Success(c, sections)
}

// ToggleReaction 翻转点赞/收藏
// @Summary 点赞/收藏
// @Tags Books
// @Produce json
// @Param bid path string true "书籍 ID"
// @Param kind path string true "互动类型（like/bookmark）"
// @Success 200 {object} dto.Response[dto.ToggleReactionResponse]
// @Router /v1/books/{bid}/reactions/{kind} [post]
func (h *BookHandler) ToggleReaction(c *gin.Context) {
	ctx := c.Request.Context()
	bookID := dto.BindBookID(c)
	kind := c.Param("kind")

	active, err := h.catalog.ToggleReaction(ctx, currentUserID(c), bookID, entity.ReactionKind(kind))
	if err != nil {
		respondError(c, err, "failed to toggle reaction")
		return
	}

	dto.Success(c, dto.ToggleReactionResponse{Active: active})
}

// RecordView 上报浏览事件
// @Summary 浏览上报
// @Description 事件进入 Redis Stream，由浏览计数消费者异步累加
// @Tags Books
// @Accept json
// @Param bid path string true "书籍 ID"
// @Success 204
// @Router /v1/books/{bid}/views [post]
func (h *BookHandler) RecordView(c *gin.Context) {
	bookID := dto.BindBookID(c)

	var req dto.RecordViewRequest
	_ = c.ShouldBindJSON(&req)

	h.catalog.RecordView(c.Request.Context(), &messaging.PageViewMessage{
		BookID:     bookID,
		EditionID:  req.EditionID,
		PageNumber: req.PageNumber,
		UserID:     currentUserID(c),
		ViewedAt:   time.Now(),
	})

	dto.NoContent(c)
}

func toBookResponse(book *entity.Book) dto.BookResponse {
	return dto.BookResponse{
		ID:        book.ID,
		Title:     book.Title,
		Summary:   book.Summary,
		AuthorID:  book.AuthorID,
		GenreSlug: book.GenreSlug,
		Language:  book.Language,
		PageCount: book.PageCount,
		CoverURL:  book.CoverURL,
		LikeCount: book.LikeCount,
		ViewCount: book.ViewCount,
		CreatedAt: book.CreatedAt.Format(time.RFC3339),
	}
}
