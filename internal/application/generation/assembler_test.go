package generation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirage-codex-api/internal/config"
	"mirage-codex-api/internal/domain/entity"
	"mirage-codex-api/pkg/errors"
)

func newTestAssembler(t *testing.T, pages *fakePageRepo, sections *fakeSectionRepo, searches *fakeSearchRepo) *Assembler {
	t.Helper()

	books := &fakeBookRepo{books: map[string]*entity.Book{
		"book-1": {
			ID:        "book-1",
			Title:     "The Hollow Lighthouse",
			AuthorID:  "author-1",
			GenreSlug: "mystery",
			Language:  "en",
			PageCount: 120,
		},
	}}
	authors := &fakeAuthorRepo{authors: map[string]*entity.Author{
		"author-1": {ID: "author-1", PenName: "E. Marlowe"},
	}}
	genres := &fakeGenreRepo{genres: map[string]*entity.Genre{
		"mystery": {Slug: "mystery", Name: "Mystery"},
	}}
	editions := &fakeEditionRepo{editions: map[string]*entity.Edition{
		"ed-1": {ID: "ed-1", BookID: "book-1", Language: "en", ModelSlug: "gpt-4o-mini"},
	}}

	if pages == nil {
		pages = &fakePageRepo{}
	}
	if sections == nil {
		sections = &fakeSectionRepo{}
	}
	if searches == nil {
		searches = &fakeSearchRepo{}
	}

	return NewAssembler(books, authors, genres, editions, pages, sections, searches,
		&config.GenerationConfig{ContextWindowPages: 3})
}

func TestAssembleFirstPageHasNoPriorContext(t *testing.T) {
	pages := &fakePageRepo{pages: map[string]map[int]*entity.Page{}}
	a := newTestAssembler(t, pages, nil, nil)

	pc, err := a.Assemble(context.Background(), "ed-1", 1)
	require.NoError(t, err)

	assert.Empty(t, pc.PriorPagesText)
	assert.Empty(t, pc.PriorTurns)
	assert.Equal(t, 1, pc.PageNumber)
	assert.Equal(t, 120, pc.TotalPages)
}

func TestAssemblePriorPagesWindow(t *testing.T) {
	pages := &fakePageRepo{pages: map[string]map[int]*entity.Page{
		"ed-1": {
			1: {PageNumber: 1, Content: "page one"},
			2: {PageNumber: 2, Content: "page two"},
			3: {PageNumber: 3, Content: "page three"},
			4: {PageNumber: 4, Content: "page four"},
		},
	}}
	a := newTestAssembler(t, pages, nil, nil)

	pc, err := a.Assemble(context.Background(), "ed-1", 5)
	require.NoError(t, err)

	// 窗口为 3：页 5 只看到页 2-4
	assert.Equal(t, 2, pages.rangeFrom)
	assert.Equal(t, 4, pages.rangeTo)
	require.Len(t, pc.PriorTurns, 3)
	assert.Equal(t, 2, pc.PriorTurns[0].PageNumber)
	assert.Equal(t, 4, pc.PriorTurns[2].PageNumber)

	assert.Contains(t, pc.PriorPagesText, "--- Page 2 ---\npage two")
	assert.Contains(t, pc.PriorPagesText, "--- Page 4 ---\npage four")
	assert.NotContains(t, pc.PriorPagesText, "page one")
}

func TestAssemblePriorPagesNearBookStart(t *testing.T) {
	pages := &fakePageRepo{pages: map[string]map[int]*entity.Page{
		"ed-1": {1: {PageNumber: 1, Content: "page one"}},
	}}
	a := newTestAssembler(t, pages, nil, nil)

	pc, err := a.Assemble(context.Background(), "ed-1", 2)
	require.NoError(t, err)

	// 窗口下界被钳制到 1
	assert.Equal(t, 1, pages.rangeFrom)
	assert.Equal(t, 1, pages.rangeTo)
	require.Len(t, pc.PriorTurns, 1)
}

func TestAssemblePriorPagesToleratesGaps(t *testing.T) {
	pages := &fakePageRepo{pages: map[string]map[int]*entity.Page{
		"ed-1": {2: {PageNumber: 2, Content: "page two"}},
	}}
	a := newTestAssembler(t, pages, nil, nil)

	pc, err := a.Assemble(context.Background(), "ed-1", 5)
	require.NoError(t, err)

	require.Len(t, pc.PriorTurns, 1)
	assert.Equal(t, 2, pc.PriorTurns[0].PageNumber)
}

func TestAssembleSectionClassification(t *testing.T) {
	sections := &fakeSectionRepo{sections: []*entity.Section{
		{OrderIndex: 0, Title: "Arrival", FromPage: 1, ToPage: 10},
		{OrderIndex: 1, Title: "The Keeper", FromPage: 11, ToPage: 40},
		{OrderIndex: 2, Title: "Descent", FromPage: 41, ToPage: 120},
	}}
	a := newTestAssembler(t, nil, sections, nil)

	pc, err := a.Assemble(context.Background(), "ed-1", 20)
	require.NoError(t, err)

	require.Len(t, pc.PastSections, 1)
	assert.Equal(t, "Arrival", pc.PastSections[0].Title)
	require.NotNil(t, pc.CurrentSection)
	assert.Equal(t, "The Keeper", pc.CurrentSection.Title)
	require.Len(t, pc.FutureSections, 1)
	assert.Equal(t, "Descent", pc.FutureSections[0].Title)

	// 页 20 是 The Keeper（11-40，共 30 页）的第 10 页
	assert.Equal(t, "page 10 of 30 in this section (33%)", pc.ProgressLabel)
}

func TestAssembleOverlappingSectionsPicksLowestOrderIndex(t *testing.T) {
	sections := &fakeSectionRepo{sections: []*entity.Section{
		{OrderIndex: 1, Title: "Interlude", FromPage: 15, ToPage: 25},
		{OrderIndex: 0, Title: "The Keeper", FromPage: 11, ToPage: 40},
	}}
	a := newTestAssembler(t, nil, sections, nil)

	pc, err := a.Assemble(context.Background(), "ed-1", 20)
	require.NoError(t, err)

	require.NotNil(t, pc.CurrentSection)
	assert.Equal(t, "The Keeper", pc.CurrentSection.Title)
}

func TestAssembleSearchContext(t *testing.T) {
	searches := &fakeSearchRepo{
		search: &entity.BookSearch{ID: "search-1", BookID: "book-1", Query: "lighthouse mystery"},
		labels: []string{"atmospheric", "slow burn"},
	}
	a := newTestAssembler(t, nil, nil, searches)

	pc, err := a.Assemble(context.Background(), "ed-1", 1)
	require.NoError(t, err)

	assert.Equal(t, "lighthouse mystery", pc.OriginalQuery)
	assert.Equal(t, []string{"atmospheric", "slow burn"}, pc.SearchTags)
}

func TestAssembleNoSearchContextIsNotAnError(t *testing.T) {
	a := newTestAssembler(t, nil, nil, &fakeSearchRepo{})

	pc, err := a.Assemble(context.Background(), "ed-1", 1)
	require.NoError(t, err)
	assert.Empty(t, pc.OriginalQuery)
	assert.Empty(t, pc.SearchTags)
}

func TestAssembleRejectsBadInput(t *testing.T) {
	a := newTestAssembler(t, nil, nil, nil)

	_, err := a.Assemble(context.Background(), "ed-1", 0)
	assert.Error(t, err)

	_, err = a.Assemble(context.Background(), "ed-1", 121)
	assert.Error(t, err)

	_, err = a.Assemble(context.Background(), "missing-edition", 1)
	assert.ErrorIs(t, err, errors.ErrEditionNotFound)
}
