package model

import "time"

// PageTurn 上下文窗口中的一页，作为对话历史回放给模型
type PageTurn struct {
	PageNumber int
	Content    string
}

// PageGenerateInput 单页生成输入。
// SystemPrompt 由管线的提示词构建器确定性产出，链路不再拼装。
type PageGenerateInput struct {
	Provider     string
	Model        string
	SystemPrompt string
	Turns        []PageTurn
	PageNumber   int

	Temperature *float32
	MaxTokens   *int
}

// LLMUsageMeta 单次调用的用量元数据
type LLMUsageMeta struct {
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	GeneratedAt      time.Time
}
