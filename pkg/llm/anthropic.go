package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

// AnthropicClient provides access to Anthropic vision models.
type AnthropicClient struct {
	client    *anthropic.Client
	endpoint  string
	model     string
	maxTokens int
	timeout   time.Duration
	logger    *zap.Logger
}

// NewAnthropicClient creates a vision client for the Anthropic Messages API.
// Endpoint is optional and overrides the default API base URL.
func NewAnthropicClient(cfg *Config, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	var opts []anthropic.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.Endpoint))
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &AnthropicClient{
		client:    anthropic.NewClient(cfg.APIKey, opts...),
		endpoint:  cfg.Endpoint,
		model:     cfg.Model,
		maxTokens: maxTokens,
		timeout:   cfg.Timeout,
		logger:    logger.Named("llm-anthropic"),
	}, nil
}

// AnalyzeImage sends the image as a base64 content block followed by the prompt.
func (c *AnthropicClient) AnalyzeImage(ctx context.Context, req *ImageRequest) (*GenerateResponseResult, error) {
	if len(req.Image) == 0 {
		return nil, fmt.Errorf("image is required")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	prompt := req.Prompt
	source := anthropic.NewMessageContentSource(
		anthropic.MessagesContentSourceTypeBase64,
		ResolveMIMEType(req.Image, req.MIMEType),
		base64.StdEncoding.EncodeToString(req.Image),
	)

	start := time.Now()

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    req.SystemMessage,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				anthropic.NewImageMessageContent(source),
				{Type: "text", Text: &prompt},
			}},
		},
	})
	if err != nil {
		c.logger.Error("Vision request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		llmErr := ClassifyError(err)
		llmErr.Model = c.model
		return nil, llmErr
	}

	content := resp.GetFirstContentText()
	if content == "" {
		return nil, NewErrorWithContext(ErrorTypeMalformed, "no text content in response", false, nil, c.model, c.endpoint, 0)
	}

	c.logger.Info("Vision request completed",
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	return &GenerateResponseResult{
		Content:          content,
		PromptTokens:     resp.Usage.InputTokens,
		CompletionTokens: resp.Usage.OutputTokens,
		TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}, nil
}

// GetModel returns the configured model name.
func (c *AnthropicClient) GetModel() string {
	return c.model
}

// GetEndpoint returns the configured endpoint, or "" for the default API.
func (c *AnthropicClient) GetEndpoint() string {
	return c.endpoint
}
