package generation

import (
	"fmt"
	"strings"
)

// BuildPagePrompt 从组装好的上下文构建单页生成的系统提示词。
// 纯函数：同样的输入总是产出同一个字符串，组装顺序固定。
func BuildPagePrompt(in *PromptInput) string {
	pc := in.Context
	var sb strings.Builder

	writeRole(&sb, pc)
	writeAuthorVoice(&sb, pc)
	writeBookMetadata(&sb, pc)
	writeOriginalIntent(&sb, pc)
	writeSectionStructure(&sb, pc)
	writePriorText(&sb, pc)
	writeFormattingRules(&sb, pc)
	writeLengthGuidance(&sb, in.TargetWords)
	if in.IllustrationsEnabled {
		writeIllustrationRules(&sb)
	}
	writeClosingDirective(&sb, pc)

	return sb.String()
}

func writeRole(sb *strings.Builder, pc *PageContext) {
	sb.WriteString("You are the author of a book, writing it one page at a time. ")
	sb.WriteString("Write the requested page as continuous prose, staying fully in character.\n")
}

func writeAuthorVoice(sb *strings.Builder, pc *PageContext) {
	author := pc.Author
	if author == nil {
		return
	}

	sb.WriteString("\n## Author voice\n")
	sb.WriteString(fmt.Sprintf("You write as %s.\n", author.PenName))
	if author.Bio != "" {
		sb.WriteString(fmt.Sprintf("About the author: %s\n", author.Bio))
	}
	if author.StylePrompt != "" {
		sb.WriteString(fmt.Sprintf("Style directives: %s\n", author.StylePrompt))
	}
}

func writeBookMetadata(sb *strings.Builder, pc *PageContext) {
	book := pc.Book

	sb.WriteString("\n## Book\n")
	sb.WriteString(fmt.Sprintf("Title: %s\n", book.Title))
	if pc.Genre != nil {
		sb.WriteString(fmt.Sprintf("Genre: %s\n", pc.Genre.Name))
	}
	sb.WriteString(fmt.Sprintf("Total pages: %d\n", pc.TotalPages))
	sb.WriteString(fmt.Sprintf("Current page: %d\n", pc.PageNumber))
	sb.WriteString(fmt.Sprintf("Language: %s\n", book.Language))
	if book.Summary != "" {
		sb.WriteString(fmt.Sprintf("Summary: %s\n", book.Summary))
	}
}

func writeOriginalIntent(sb *strings.Builder, pc *PageContext) {
	if pc.OriginalQuery == "" && len(pc.SearchTags) == 0 {
		return
	}

	sb.WriteString("\n## Original creative intent\n")
	if pc.OriginalQuery != "" {
		sb.WriteString(fmt.Sprintf("This book was conjured from the search: %q\n", pc.OriginalQuery))
	}
	if len(pc.SearchTags) > 0 {
		sb.WriteString(fmt.Sprintf("Associated themes: %s\n", strings.Join(pc.SearchTags, ", ")))
	}
}

func writeSectionStructure(sb *strings.Builder, pc *PageContext) {
	if len(pc.PastSections) == 0 && pc.CurrentSection == nil && len(pc.FutureSections) == 0 {
		return
	}

	sb.WriteString("\n## Book structure\n")
	for _, s := range pc.PastSections {
		sb.WriteString(fmt.Sprintf("[past] %s (pages %d-%d): %s\n", s.Title, s.FromPage, s.ToPage, s.Summary))
	}
	if cur := pc.CurrentSection; cur != nil {
		sb.WriteString(fmt.Sprintf("[current] %s (pages %d-%d): %s\n", cur.Title, cur.FromPage, cur.ToPage, cur.Summary))
		if pc.ProgressLabel != "" {
			sb.WriteString(fmt.Sprintf("You are at %s.\n", pc.ProgressLabel))
		}
	}
	for _, s := range pc.FutureSections {
		sb.WriteString(fmt.Sprintf("[future] %s (pages %d-%d): %s\n", s.Title, s.FromPage, s.ToPage, s.Summary))
	}
}

func writePriorText(sb *strings.Builder, pc *PageContext) {
	if pc.PriorPagesText == "" {
		return
	}

	sb.WriteString("\n## Preceding pages\n")
	sb.WriteString(pc.PriorPagesText)
	sb.WriteString("\n")
}

func writeFormattingRules(sb *strings.Builder, pc *PageContext) {
	sb.WriteString("\n## Rules\n")
	sb.WriteString("- Do not include page numbers in the text.\n")
	sb.WriteString("- Do not mention the author's name.\n")
	sb.WriteString("- Do not repeat the book title.\n")
	sb.WriteString("- Do not repeat the section title.\n")
	sb.WriteString("- Do not repeat prior content verbatim; continue the narrative.\n")
	if pc.Genre != nil && pc.Genre.PromptFormat != "" {
		sb.WriteString(fmt.Sprintf("- %s\n", pc.Genre.PromptFormat))
	}
}

func writeLengthGuidance(sb *strings.Builder, targetWords int) {
	sb.WriteString(fmt.Sprintf("\nAim for roughly %d words on this page.\n", targetWords))
}

func writeIllustrationRules(sb *strings.Builder) {
	sb.WriteString("\n## Illustrations\n")
	sb.WriteString("Where a scene deserves an illustration, insert a tag of the form ")
	sb.WriteString("[p=a one sentence scene description in lowercase without special characters]. ")
	sb.WriteString("Always write the description in English, regardless of the page language. ")
	sb.WriteString("Use at most one tag per page.\n")
}

func writeClosingDirective(sb *strings.Builder, pc *PageContext) {
	sb.WriteString(fmt.Sprintf("\nNow write page %d of %d.", pc.PageNumber, pc.TotalPages))
	if pc.ProgressLabel != "" {
		sb.WriteString(fmt.Sprintf(" Remember: you are at %s.", pc.ProgressLabel))
	}
	sb.WriteString("\n")
}
