// Package llm provides clients for multimodal model services and the plumbing
// (worker pool, circuit breaker, error classification) shared by model-backed calls.
package llm

import (
	"context"
)

// ImageRequest is a single-image instruction sent to a vision model.
type ImageRequest struct {
	Prompt        string
	SystemMessage string
	Image         []byte
	MIMEType      string // e.g. "image/jpeg"; detected from Image when empty
}

// GenerateResponseResult holds the model's text output and usage stats.
type GenerateResponseResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// VisionClient defines the interface for vision model operations.
// Use this interface for dependency injection to enable mocking in tests.
type VisionClient interface {
	// AnalyzeImage sends one image plus an instruction and returns the raw text answer.
	AnalyzeImage(ctx context.Context, req *ImageRequest) (*GenerateResponseResult, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// Ensure both clients implement VisionClient at compile time.
var (
	_ VisionClient = (*Client)(nil)
	_ VisionClient = (*AnthropicClient)(nil)
)
