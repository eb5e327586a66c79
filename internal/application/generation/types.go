// Package generation 实现单页生成管线：上下文组装、提示词构建、
// 积分门控与流式生成/保存。
package generation

import (
	"mirage-codex-api/internal/domain/entity"
)

// PageContext 组装好的单页生成上下文
type PageContext struct {
	Book    *entity.Book
	Author  *entity.Author
	Genre   *entity.Genre
	Edition *entity.Edition

	// PriorPagesText 上下文窗口内前页文本的拼接，页 1 为空
	PriorPagesText string
	// PriorTurns 上下文窗口内的前页，供聊天历史回放
	PriorTurns []PriorPage

	PastSections   []*entity.Section
	CurrentSection *entity.Section
	FutureSections []*entity.Section
	// ProgressLabel 当前章节进度的人类可读片段，无当前章节时为空
	ProgressLabel string

	// OriginalQuery 触发这本书生成的检索查询，非检索书为空
	OriginalQuery string
	SearchTags    []string

	PageNumber int
	TotalPages int
}

// PriorPage 上下文窗口内的一个前页
type PriorPage struct {
	PageNumber int
	Content    string
}

// PromptInput 提示词构建输入，全部字段在调用前确定
type PromptInput struct {
	Context *PageContext
	// TargetWords 单页目标字数，已含体裁/配置兜底
	TargetWords int
	// IllustrationsEnabled 开启时追加插图标记指令
	IllustrationsEnabled bool
}

// StreamRequest 单页流式生成请求
type StreamRequest struct {
	UserID     string
	EditionID  string
	PageNumber int
}

// SaveRequest 页面保存请求
type SaveRequest struct {
	UserID     string
	EditionID  string
	PageNumber int
	Content    string
}

// SaveResult 页面保存结果
type SaveResult struct {
	// AlreadySaved 页槽位已被占用（幂等命中），本次未扣费
	AlreadySaved bool
	// Debited 本次保存触发了积分扣减
	Debited bool
	// Cost 适用的单页成本
	Cost int64
}
