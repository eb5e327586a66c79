// Package imagegen 提供文生图提供商的 HTTP 客户端
package imagegen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mirage-codex-api/internal/config"
	"mirage-codex-api/pkg/errors"
)

var tracer = otel.Tracer("imagegen")

// Generator 图像生成接口
type Generator interface {
	// Generate 按提示词生成一张图像，返回图像字节与本次使用的参数快照
	Generate(ctx context.Context, prompt string) ([]byte, *Params, error)
}

// Params 单次生成的参数快照。
// 分辨率、步数与格式来自配置，固定不变；种子每次调用随机。
type Params struct {
	Model  string
	Width  int
	Height int
	Steps  int
	Seed   int64
	Format string
}

// Client 文生图提供商客户端
type Client struct {
	http   *resty.Client
	config *config.ImageGenConfig
}

// NewClient 创建图像生成客户端
func NewClient(cfg *config.ImageGenConfig) *Client {
	client := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}

	return &Client{
		http:   client,
		config: cfg,
	}
}

type generateRequest struct {
	Model        string `json:"model"`
	Prompt       string `json:"prompt"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Steps        int    `json:"steps"`
	Seed         int64  `json:"seed"`
	OutputFormat string `json:"output_format"`
}

type generateResponse struct {
	Image string `json:"image"`
	Error string `json:"error,omitempty"`
}

// Generate 调用提供商生成图像
func (c *Client) Generate(ctx context.Context, prompt string) ([]byte, *Params, error) {
	ctx, span := tracer.Start(ctx, "imagegen.Generate",
		trace.WithAttributes(
			attribute.String("imagegen.model", c.config.Model),
			attribute.Int("imagegen.width", c.config.Width),
			attribute.Int("imagegen.height", c.config.Height),
		))
	defer span.End()

	params := &Params{
		Model:  c.config.Model,
		Width:  c.config.Width,
		Height: c.config.Height,
		Steps:  c.config.Steps,
		Seed:   rand.Int63(),
		Format: c.config.Format,
	}

	req := &generateRequest{
		Model:        params.Model,
		Prompt:       prompt,
		Width:        params.Width,
		Height:       params.Height,
		Steps:        params.Steps,
		Seed:         params.Seed,
		OutputFormat: params.Format,
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post("/v1/images/generations")
	if err != nil {
		span.RecordError(err)
		return nil, nil, errors.Wrap(err, errors.CodeImageGenFailed, "image provider request failed")
	}

	if resp.StatusCode() != 200 {
		err := fmt.Errorf("image provider returned status %d: %s", resp.StatusCode(), resp.String())
		span.RecordError(err)
		return nil, nil, errors.Wrap(err, errors.CodeImageGenFailed, "image provider returned error")
	}

	var result generateResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		span.RecordError(err)
		return nil, nil, errors.Wrap(err, errors.CodeImageGenFailed, "failed to decode image provider response")
	}
	if result.Error != "" {
		err := fmt.Errorf("image provider error: %s", result.Error)
		span.RecordError(err)
		return nil, nil, errors.Wrap(err, errors.CodeImageGenFailed, "image provider rejected request")
	}

	data, err := base64.StdEncoding.DecodeString(result.Image)
	if err != nil {
		span.RecordError(err)
		return nil, nil, errors.Wrap(err, errors.CodeImageGenFailed, "failed to decode image payload")
	}

	span.SetAttributes(attribute.Int("imagegen.bytes", len(data)))
	return data, params, nil
}
