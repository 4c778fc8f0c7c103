package handlers

import (
	"context"

	"github.com/brickwise/brickwise-engine/pkg/llm"
	"github.com/brickwise/brickwise-engine/pkg/models"
	"github.com/brickwise/brickwise-engine/pkg/services"
)

type mockBatchIdentifier struct {
	images []string
	result *services.BatchResult
	err    error
}

func (m *mockBatchIdentifier) Identify(ctx context.Context, photos []models.Photo) (*services.BatchResult, error) {
	return m.result, m.err
}

func (m *mockBatchIdentifier) IdentifyEncoded(ctx context.Context, images []string) (*services.BatchResult, error) {
	m.images = images
	return m.result, m.err
}

type mockSetMatcher struct {
	parts  []models.OwnedPart
	opts   services.MatchOptions
	result *services.MatchResult
	err    error
}

func (m *mockSetMatcher) FindBuilds(ctx context.Context, owned []models.OwnedPart, opts services.MatchOptions) (*services.MatchResult, error) {
	m.parts = owned
	m.opts = opts
	return m.result, m.err
}

type mockSetSearcher struct {
	query   string
	results []models.SetSearchResult
	err     error
}

func (m *mockSetSearcher) SearchSets(ctx context.Context, query string) ([]models.SetSearchResult, error) {
	m.query = query
	return m.results, m.err
}

type fixedCircuit llm.CircuitState

func (c fixedCircuit) CircuitState() llm.CircuitState {
	return llm.CircuitState(c)
}
