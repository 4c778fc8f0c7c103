package tools

import (
	"context"

	"go.uber.org/zap"

	"github.com/brickwise/brickwise-engine/pkg/llm"
	"github.com/brickwise/brickwise-engine/pkg/models"
	"github.com/brickwise/brickwise-engine/pkg/services"
)

// SetSearcher searches the catalog for sets by free text.
type SetSearcher interface {
	SearchSets(ctx context.Context, query string) ([]models.SetSearchResult, error)
}

// CircuitReporter exposes the state of an upstream circuit breaker.
type CircuitReporter interface {
	CircuitState() llm.CircuitState
}

// ToolDeps holds the services the brick tools call.
// Nil services leave their tools unregistered.
type ToolDeps struct {
	Identifier services.BatchIdentifier
	Matcher    services.SetMatcher
	Sets       SetSearcher
	Classifier CircuitReporter
	Version    string
	Logger     *zap.Logger
}

// RegisterAll registers every tool whose dependencies are present.
func RegisterAll(s toolAdder, deps *ToolDeps) {
	RegisterHealthTool(s, deps.Version, deps.Classifier)
	RegisterColorTool(s)
	if deps.Sets != nil {
		RegisterSearchSetsTool(s, deps)
	}
	if deps.Matcher != nil {
		RegisterFindBuildsTool(s, deps)
	}
	if deps.Identifier != nil {
		RegisterIdentifyTool(s, deps)
	}
}
