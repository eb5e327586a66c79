// Package chain 组装单页生成的 LLM 调用链
package chain

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	wfmodel "mirage-codex-api/internal/workflow/model"
	workflowport "mirage-codex-api/internal/workflow/port"
	"mirage-codex-api/pkg/metrics"
)

// PageChain 单页生成链。
// 提示词在管线层构建完成，这里只负责消息编排与模型调用。
type PageChain struct {
	factory workflowport.ChatModelFactory
}

// NewPageChain 创建单页生成链
func NewPageChain(factory workflowport.ChatModelFactory) *PageChain {
	return &PageChain{factory: factory}
}

// Stream 返回 Eino StreamReader；调用方负责 Close()。
// 约定：流可能在最后返回一个 Content 为空但包含 Usage 的消息，用于 Token 统计。
func (c *PageChain) Stream(ctx context.Context, in *wfmodel.PageGenerateInput) (*schema.StreamReader[*schema.Message], error) {
	if err := c.validate(in); err != nil {
		return nil, err
	}

	chatModel, err := c.factory.Get(ctx, strings.TrimSpace(in.Provider))
	if err != nil {
		return nil, err
	}

	stream, err := chatModel.Stream(ctx, formatPageMessages(in), buildPageModelOptions(in)...)
	if err != nil {
		metrics.LLMCallTotal.WithLabelValues(in.Provider, in.Model, "error").Inc()
		return nil, err
	}
	metrics.LLMCallTotal.WithLabelValues(in.Provider, in.Model, "ok").Inc()
	return stream, nil
}

func (c *PageChain) validate(in *wfmodel.PageGenerateInput) error {
	if c == nil || c.factory == nil {
		return fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return fmt.Errorf("input is nil")
	}
	if strings.TrimSpace(in.Provider) == "" {
		return fmt.Errorf("provider is required")
	}
	if strings.TrimSpace(in.SystemPrompt) == "" {
		return fmt.Errorf("system prompt is required")
	}
	if in.PageNumber < 1 {
		return fmt.Errorf("page number is required")
	}
	return nil
}

// formatPageMessages 将上下文窗口回放为对话历史：每个前页一轮
// user 请求 + assistant 回答，最后追加本页的 user 请求。
func formatPageMessages(in *wfmodel.PageGenerateInput) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(in.Turns)*2+2)
	msgs = append(msgs, schema.SystemMessage(in.SystemPrompt))

	for _, turn := range in.Turns {
		msgs = append(msgs,
			schema.UserMessage(fmt.Sprintf("Write page %d.", turn.PageNumber)),
			schema.AssistantMessage(turn.Content, nil),
		)
	}

	msgs = append(msgs, schema.UserMessage(fmt.Sprintf("Write page %d.", in.PageNumber)))
	return msgs
}

func buildPageModelOptions(in *wfmodel.PageGenerateInput) []model.Option {
	opts := make([]model.Option, 0, 3)
	if in == nil {
		return opts
	}
	if in.Temperature != nil {
		opts = append(opts, model.WithTemperature(*in.Temperature))
	}
	if in.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*in.MaxTokens))
	}
	if strings.TrimSpace(in.Model) != "" {
		opts = append(opts, model.WithModel(strings.TrimSpace(in.Model)))
	}
	return opts
}
