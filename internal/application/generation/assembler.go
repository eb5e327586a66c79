package generation

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mirage-codex-api/internal/config"
	"mirage-codex-api/internal/domain/entity"
	"mirage-codex-api/internal/domain/repository"
	"mirage-codex-api/pkg/errors"
)

var tracer = otel.Tracer("generation")

// Assembler 上下文组装器。
// 缺失的版次/书籍让整条管线在任何生成调用之前终止。
type Assembler struct {
	books    repository.BookRepository
	authors  repository.AuthorRepository
	genres   repository.GenreRepository
	editions repository.EditionRepository
	pages    repository.PageRepository
	sections repository.SectionRepository
	searches repository.SearchRepository

	windowSize int
}

// NewAssembler 创建上下文组装器
func NewAssembler(
	books repository.BookRepository,
	authors repository.AuthorRepository,
	genres repository.GenreRepository,
	editions repository.EditionRepository,
	pages repository.PageRepository,
	sections repository.SectionRepository,
	searches repository.SearchRepository,
	cfg *config.GenerationConfig,
) *Assembler {
	window := cfg.ContextWindowPages
	if window <= 0 {
		window = 3
	}
	return &Assembler{
		books:      books,
		authors:    authors,
		genres:     genres,
		editions:   editions,
		pages:      pages,
		sections:   sections,
		searches:   searches,
		windowSize: window,
	}
}

// Assemble 组装单页生成上下文
func (a *Assembler) Assemble(ctx context.Context, editionID string, pageNumber int) (*PageContext, error) {
	ctx, span := tracer.Start(ctx, "generation.Assembler.Assemble",
		trace.WithAttributes(
			attribute.String("edition_id", editionID),
			attribute.Int("page_number", pageNumber),
		))
	defer span.End()

	if pageNumber < 1 {
		return nil, errors.New(errors.CodeInvalidParam, "page number must be positive")
	}

	edition, err := a.editions.GetByID(ctx, editionID)
	if err != nil {
		return nil, err
	}
	if edition == nil {
		return nil, errors.ErrEditionNotFound
	}

	book, err := a.books.GetByID(ctx, edition.BookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, errors.ErrBookNotFound
	}
	if pageNumber > book.PageCount {
		return nil, errors.New(errors.CodeInvalidParam,
			fmt.Sprintf("page %d exceeds book length %d", pageNumber, book.PageCount))
	}

	author, err := a.authors.GetByID(ctx, book.AuthorID)
	if err != nil {
		return nil, err
	}

	var genre *entity.Genre
	if book.GenreSlug != "" {
		genre, err = a.genres.GetBySlug(ctx, book.GenreSlug)
		if err != nil {
			return nil, err
		}
	}

	pc := &PageContext{
		Book:       book,
		Author:     author,
		Genre:      genre,
		Edition:    edition,
		PageNumber: pageNumber,
		TotalPages: book.PageCount,
	}

	if err := a.assemblePriorPages(ctx, pc); err != nil {
		return nil, err
	}
	if err := a.assembleSections(ctx, pc); err != nil {
		return nil, err
	}
	if err := a.assembleSearchContext(ctx, pc); err != nil {
		return nil, err
	}

	return pc, nil
}

// assemblePriorPages 取 [max(1, n-window), n-1] 闭区间内的页面，升序拼接。
// 页 1 没有前文；区间内的空洞只降低上下文质量，不报错。
func (a *Assembler) assemblePriorPages(ctx context.Context, pc *PageContext) error {
	if pc.PageNumber == 1 {
		return nil
	}

	from := pc.PageNumber - a.windowSize
	if from < 1 {
		from = 1
	}
	to := pc.PageNumber - 1

	pages, err := a.pages.ListRange(ctx, pc.Edition.ID, from, to)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		return nil
	}

	var sb strings.Builder
	turns := make([]PriorPage, 0, len(pages))
	for i, page := range pages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(fmt.Sprintf("--- Page %d ---\n", page.PageNumber))
		sb.WriteString(page.Content)
		turns = append(turns, PriorPage{
			PageNumber: page.PageNumber,
			Content:    page.Content,
		})
	}

	pc.PriorPagesText = sb.String()
	pc.PriorTurns = turns
	return nil
}

// assembleSections 按闭区间比较将章节分类为过去/当前/未来。
// 多个章节同时覆盖当前页时取 order_index 最小者，保证分类确定。
func (a *Assembler) assembleSections(ctx context.Context, pc *PageContext) error {
	sections, err := a.sections.ListByBook(ctx, pc.Book.ID)
	if err != nil {
		return err
	}

	for _, section := range sections {
		switch {
		case section.ToPage < pc.PageNumber:
			pc.PastSections = append(pc.PastSections, section)
		case section.FromPage > pc.PageNumber:
			pc.FutureSections = append(pc.FutureSections, section)
		case section.Contains(pc.PageNumber):
			if pc.CurrentSection == nil || section.OrderIndex < pc.CurrentSection.OrderIndex {
				pc.CurrentSection = section
			}
		}
	}

	if cur := pc.CurrentSection; cur != nil {
		pageInSection := pc.PageNumber - cur.FromPage + 1
		sectionLength := cur.Length()
		percent := int(math.Round(100 * float64(pageInSection) / float64(sectionLength)))
		pc.ProgressLabel = fmt.Sprintf("page %d of %d in this section (%d%%)",
			pageInSection, sectionLength, percent)
	}

	return nil
}

// assembleSearchContext 查书籍的检索记录并批量解析标签。缺失不是错误。
func (a *Assembler) assembleSearchContext(ctx context.Context, pc *PageContext) error {
	search, err := a.searches.GetByBook(ctx, pc.Book.ID)
	if err != nil {
		return err
	}
	if search == nil {
		return nil
	}

	pc.OriginalQuery = search.Query

	labels, err := a.searches.ListTagLabels(ctx, search.ID)
	if err != nil {
		return err
	}
	pc.SearchTags = labels
	return nil
}
