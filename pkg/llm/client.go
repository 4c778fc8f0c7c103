package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Provider names accepted in Config.Provider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Client provides access to OpenAI-compatible vision endpoints.
type Client struct {
	client      *openai.Client
	endpoint    string
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	logger      *zap.Logger
}

// Config holds configuration for creating a vision client.
type Config struct {
	Provider    string        // "openai" (default) or "anthropic"
	Endpoint    string        // Base URL, e.g., "https://api.openai.com/v1"
	Model       string        // Model name, e.g., "gpt-4o"
	APIKey      string        // Optional for local endpoints
	MaxTokens   int           // Completion budget; detection lists can be long
	Temperature float64       // Low values keep box coordinates stable
	Timeout     time.Duration // Per-call bound; zero means no extra bound
}

// NewClient creates a new OpenAI-compatible vision client.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")

	return &Client{
		client:      openai.NewClientWithConfig(clientConfig),
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		logger:      logger.Named("llm"),
	}, nil
}

// AnalyzeImage sends the image as a base64 data URI alongside the prompt.
func (c *Client) AnalyzeImage(ctx context.Context, req *ImageRequest) (*GenerateResponseResult, error) {
	if len(req.Image) == 0 {
		return nil, fmt.Errorf("image is required")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.SystemMessage != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemMessage,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    DataURI(req.Image, req.MIMEType),
					Detail: openai.ImageURLDetailHigh,
				},
			},
		},
	})

	c.logger.Debug("Vision request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(req.Prompt)),
		zap.Int("image_bytes", len(req.Image)))

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32(c.temperature),
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		c.logger.Error("Vision request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, c.parseError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, NewErrorWithContext(ErrorTypeMalformed, "no choices in response", false, nil, c.model, c.endpoint, 0)
	}

	c.logger.Info("Vision request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return &GenerateResponseResult{
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

// GetModel returns the configured model name.
func (c *Client) GetModel() string {
	return c.model
}

// GetEndpoint returns the configured endpoint.
func (c *Client) GetEndpoint() string {
	return c.endpoint
}

func (c *Client) parseError(err error) error {
	llmErr := ClassifyError(err)
	if llmErr.Model == "" {
		llmErr.Model = c.model
	}
	if llmErr.Endpoint == "" {
		llmErr.Endpoint = c.endpoint
	}
	return llmErr
}

// DataURI encodes an image as a data URI. The MIME type is sniffed when empty.
func DataURI(data []byte, mimeType string) string {
	return "data:" + ResolveMIMEType(data, mimeType) + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ResolveMIMEType returns mimeType, or the sniffed content type of data when mimeType is empty.
func ResolveMIMEType(data []byte, mimeType string) string {
	if mimeType != "" {
		return mimeType
	}
	return http.DetectContentType(data)
}
