package generation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mirage-codex-api/internal/domain/entity"
)

func promptContext() *PageContext {
	return &PageContext{
		Book: &entity.Book{
			Title:    "The Hollow Lighthouse",
			Language: "en",
			Summary:  "A keeper vanishes.",
		},
		Author: &entity.Author{
			PenName:     "E. Marlowe",
			Bio:         "Reclusive coastal novelist.",
			StylePrompt: "Short declarative sentences.",
		},
		Genre: &entity.Genre{
			Slug:         "mystery",
			Name:         "Mystery",
			PromptFormat: "End each page on an unresolved note.",
		},
		PastSections: []*entity.Section{
			{Title: "Arrival", FromPage: 1, ToPage: 10, Summary: "The narrator arrives."},
		},
		CurrentSection: &entity.Section{
			Title: "The Keeper", FromPage: 11, ToPage: 40, Summary: "Strange routines.",
		},
		FutureSections: []*entity.Section{
			{Title: "Descent", FromPage: 41, ToPage: 120, Summary: "The truth surfaces."},
		},
		ProgressLabel:  "page 10 of 30 in this section (33%)",
		PriorPagesText: "--- Page 19 ---\nThe lamp went dark.",
		OriginalQuery:  "lighthouse mystery",
		SearchTags:     []string{"atmospheric"},
		PageNumber:     20,
		TotalPages:     120,
	}
}

func TestBuildPagePromptIsDeterministic(t *testing.T) {
	in := &PromptInput{Context: promptContext(), TargetWords: 350, IllustrationsEnabled: true}

	first := BuildPagePrompt(in)
	second := BuildPagePrompt(in)

	assert.Equal(t, first, second)
}

func TestBuildPagePromptSegmentOrder(t *testing.T) {
	prompt := BuildPagePrompt(&PromptInput{
		Context:              promptContext(),
		TargetWords:          350,
		IllustrationsEnabled: true,
	})

	headers := []string{
		"## Author voice",
		"## Book",
		"## Original creative intent",
		"## Book structure",
		"## Preceding pages",
		"## Rules",
		"## Illustrations",
	}

	last := -1
	for _, header := range headers {
		idx := strings.Index(prompt, header)
		require.GreaterOrEqual(t, idx, 0, "missing segment %q", header)
		assert.Greater(t, idx, last, "segment %q out of order", header)
		last = idx
	}

	assert.True(t, strings.Contains(prompt, "Now write page 20 of 120."))
}

func TestBuildPagePromptContent(t *testing.T) {
	prompt := BuildPagePrompt(&PromptInput{Context: promptContext(), TargetWords: 275})

	assert.Contains(t, prompt, "You write as E. Marlowe.")
	assert.Contains(t, prompt, "Title: The Hollow Lighthouse")
	assert.Contains(t, prompt, "Genre: Mystery")
	assert.Contains(t, prompt, `conjured from the search: "lighthouse mystery"`)
	assert.Contains(t, prompt, "[past] Arrival (pages 1-10): The narrator arrives.")
	assert.Contains(t, prompt, "[current] The Keeper (pages 11-40): Strange routines.")
	assert.Contains(t, prompt, "[future] Descent (pages 41-120): The truth surfaces.")
	assert.Contains(t, prompt, "You are at page 10 of 30 in this section (33%).")
	assert.Contains(t, prompt, "The lamp went dark.")
	assert.Contains(t, prompt, "End each page on an unresolved note.")
	assert.Contains(t, prompt, "Aim for roughly 275 words")
}

func TestBuildPagePromptIllustrationsFlag(t *testing.T) {
	with := BuildPagePrompt(&PromptInput{Context: promptContext(), TargetWords: 350, IllustrationsEnabled: true})
	without := BuildPagePrompt(&PromptInput{Context: promptContext(), TargetWords: 350})

	assert.Contains(t, with, "## Illustrations")
	assert.Contains(t, with, "[p=")
	assert.NotContains(t, without, "## Illustrations")
	assert.NotContains(t, without, "[p=")
}

func TestBuildPagePromptOmitsEmptySegments(t *testing.T) {
	pc := &PageContext{
		Book:       &entity.Book{Title: "Bare", Language: "en"},
		PageNumber: 1,
		TotalPages: 10,
	}
	prompt := BuildPagePrompt(&PromptInput{Context: pc, TargetWords: 350})

	assert.NotContains(t, prompt, "## Author voice")
	assert.NotContains(t, prompt, "## Original creative intent")
	assert.NotContains(t, prompt, "## Book structure")
	assert.NotContains(t, prompt, "## Preceding pages")
	assert.Contains(t, prompt, "## Rules")
}
