package llm

import (
	"context"
	"sync"
)

// MockVisionClient is a configurable mock for testing vision functionality.
// Set AnalyzeImageFunc to control behavior in tests. Safe for concurrent use.
type MockVisionClient struct {
	// AnalyzeImageFunc is called when AnalyzeImage is invoked.
	// If nil, returns an empty result and nil error.
	AnalyzeImageFunc func(ctx context.Context, req *ImageRequest) (*GenerateResponseResult, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// Endpoint is returned by GetEndpoint. Defaults to "http://mock-endpoint".
	Endpoint string

	mu                sync.Mutex
	analyzeImageCalls int
}

// NewMockVisionClient creates a new mock with sensible defaults.
func NewMockVisionClient() *MockVisionClient {
	return &MockVisionClient{
		Model:    "mock-model",
		Endpoint: "http://mock-endpoint",
	}
}

// NewMockVisionClientWithResponse creates a mock that always answers with content.
func NewMockVisionClientWithResponse(content string) *MockVisionClient {
	m := NewMockVisionClient()
	m.AnalyzeImageFunc = func(ctx context.Context, req *ImageRequest) (*GenerateResponseResult, error) {
		return &GenerateResponseResult{Content: content}, nil
	}
	return m
}

// AnalyzeImage implements VisionClient.
func (m *MockVisionClient) AnalyzeImage(ctx context.Context, req *ImageRequest) (*GenerateResponseResult, error) {
	m.mu.Lock()
	m.analyzeImageCalls++
	m.mu.Unlock()

	if m.AnalyzeImageFunc != nil {
		return m.AnalyzeImageFunc(ctx, req)
	}
	return &GenerateResponseResult{}, nil
}

// AnalyzeImageCalls returns how many times AnalyzeImage was invoked.
func (m *MockVisionClient) AnalyzeImageCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.analyzeImageCalls
}

// GetModel implements VisionClient.
func (m *MockVisionClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// GetEndpoint implements VisionClient.
func (m *MockVisionClient) GetEndpoint() string {
	if m.Endpoint == "" {
		return "http://mock-endpoint"
	}
	return m.Endpoint
}

var _ VisionClient = (*MockVisionClient)(nil)
