package llm

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// NewVisionClient creates the vision client selected by cfg.Provider.
// An empty provider selects the OpenAI-compatible client.
func NewVisionClient(cfg *Config, logger *zap.Logger) (VisionClient, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOpenAI:
		client, err := NewClient(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("create openai client: %w", err)
		}
		return client, nil
	case ProviderAnthropic:
		client, err := NewAnthropicClient(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("create anthropic client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown vision provider %q", cfg.Provider)
	}
}
