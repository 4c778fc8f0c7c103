package tools

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brickwise/brickwise-engine/pkg/apperrors"
	"github.com/brickwise/brickwise-engine/pkg/colors"
	"github.com/brickwise/brickwise-engine/pkg/llm"
	"github.com/brickwise/brickwise-engine/pkg/models"
	"github.com/brickwise/brickwise-engine/pkg/services"
)

func TestHealthTool(t *testing.T) {
	s := newTestServer()
	RegisterHealthTool(s, `1.0.0-beta"test`, fixedCircuit(llm.CircuitHalfOpen))

	var health healthResult
	decodeText(t, callTool(t, s, "health", nil), &health)

	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, `1.0.0-beta"test`, health.Version)
	assert.Equal(t, "half-open", health.Classifier)
}

func TestResolveColorTool(t *testing.T) {
	s := newTestServer()
	RegisterColorTool(s)

	t.Run("known color", func(t *testing.T) {
		var result colorResult
		decodeText(t, callTool(t, s, "resolve_color", map[string]any{"label": " Dark Bluish Gray 1x2 plate "}), &result)

		assert.Equal(t, "Dark Bluish Gray 1x2 plate", result.Label)
		require.NotNil(t, result.ColorID)
		assert.Equal(t, colors.DarkBluishGray, *result.ColorID)
		assert.Equal(t, colors.Name(colors.DarkBluishGray), result.ColorName)
	})

	t.Run("no color named", func(t *testing.T) {
		var result colorResult
		decodeText(t, callTool(t, s, "resolve_color", map[string]any{"label": "hinge plate"}), &result)

		assert.Nil(t, result.ColorID)
		assert.Empty(t, result.ColorName)
	})

	t.Run("blank label", func(t *testing.T) {
		response := callTool(t, s, "resolve_color", map[string]any{"label": "   "})

		assert.True(t, response.Result.IsError)
		var errResp ErrorResponse
		decodeText(t, response, &errResp)
		assert.Equal(t, "invalid_parameters", errResp.Code)
	})
}

func TestSearchSetsTool(t *testing.T) {
	searcher := &mockSearcher{results: []models.SetSearchResult{{SetID: "10305-1", Name: "Lion Knights' Castle", PartsCount: 4514}}}
	s := newTestServer()
	RegisterSearchSetsTool(s, &ToolDeps{Sets: searcher, Logger: zap.NewNop()})

	var result searchSetsResult
	decodeText(t, callTool(t, s, "search_sets", map[string]any{"query": "castle"}), &result)

	assert.Equal(t, "castle", searcher.query)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "10305-1", result.Results[0].SetID)
}

func TestSearchSetsTool_Errors(t *testing.T) {
	t.Run("blank query never reaches the catalog", func(t *testing.T) {
		searcher := &mockSearcher{}
		s := newTestServer()
		RegisterSearchSetsTool(s, &ToolDeps{Sets: searcher, Logger: zap.NewNop()})

		response := callTool(t, s, "search_sets", map[string]any{"query": ""})
		assert.True(t, response.Result.IsError)
		assert.Empty(t, searcher.query)
	})

	t.Run("upstream failure is a protocol error", func(t *testing.T) {
		s := newTestServer()
		RegisterSearchSetsTool(s, &ToolDeps{Sets: &mockSearcher{err: errors.New("catalog returned status 500")}, Logger: zap.NewNop()})

		response := callTool(t, s, "search_sets", map[string]any{"query": "castle"})
		require.NotNil(t, response.Error)
		assert.Contains(t, response.Error.Message, "status 500")
	})
}

func TestFindBuildsTool(t *testing.T) {
	matcher := &mockMatcher{result: &services.MatchResult{
		Builds: []models.ScoredBuild{{CandidateSet: models.CandidateSet{SetID: "6000-1", NumParts: 100}, MatchScore: 50}},
		Pivots: []services.Pivot{{PartNum: "3039"}},
	}}
	s := newTestServer()
	RegisterFindBuildsTool(s, &ToolDeps{Matcher: matcher, Logger: zap.NewNop()})

	var result services.MatchResult
	decodeText(t, callTool(t, s, "find_builds", map[string]any{
		"parts": []any{
			map[string]any{"part_num": "3039", "color_id": 15, "quantity": 10},
			map[string]any{"part_num": "3001", "color_id": nil, "quantity": 4},
		},
		"min_match_percentage": 25,
		"min_confidence":       70,
	}), &result)

	require.Len(t, matcher.parts, 2)
	assert.Equal(t, "3039", *matcher.parts[0].PartNum)
	assert.Equal(t, 15, *matcher.parts[0].ColorID)
	assert.Nil(t, matcher.parts[1].ColorID)
	require.NotNil(t, matcher.opts.MinMatchPercentage)
	assert.Equal(t, 25.0, *matcher.opts.MinMatchPercentage)
	require.NotNil(t, matcher.opts.MinConfidence)
	assert.Equal(t, 70, *matcher.opts.MinConfidence)

	require.Len(t, result.Builds, 1)
	assert.Equal(t, "6000-1", result.Builds[0].SetID)
}

func TestFindBuildsTool_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]any
		err      error
		wantCode string
	}{
		{"parts not a list", map[string]any{"parts": "3001"}, nil, "invalid_parameters"},
		{"percentage out of range", map[string]any{"parts": []any{}, "min_match_percentage": 120}, nil, "invalid_parameters"},
		{"empty inventory", map[string]any{"parts": []any{}}, apperrors.ErrNoParts, "no_parts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			RegisterFindBuildsTool(s, &ToolDeps{Matcher: &mockMatcher{err: tt.err}, Logger: zap.NewNop()})

			response := callTool(t, s, "find_builds", tt.args)
			assert.True(t, response.Result.IsError)
			var errResp ErrorResponse
			decodeText(t, response, &errResp)
			assert.Equal(t, tt.wantCode, errResp.Code)
		})
	}
}

func TestIdentifyTool(t *testing.T) {
	identifier := &mockIdentifier{result: &services.BatchResult{
		BatchID:      "batch-1",
		Parts:        []models.VerifiedPart{{PartNum: models.StringPtr("3001"), Source: models.SourceTagVerified, Quantity: 1}},
		FailedPhotos: []services.PhotoFailure{},
	}}
	s := newTestServer()
	RegisterIdentifyTool(s, &ToolDeps{Identifier: identifier, Logger: zap.NewNop()})

	var result services.BatchResult
	decodeText(t, callTool(t, s, "identify_parts", map[string]any{
		"images": []any{"data:image/jpeg;base64,/9j/"},
	}), &result)

	assert.Equal(t, []string{"data:image/jpeg;base64,/9j/"}, identifier.images)
	assert.Equal(t, "batch-1", result.BatchID)
	require.Len(t, result.Parts, 1)
}

func TestIdentifyTool_NoImages(t *testing.T) {
	s := newTestServer()
	RegisterIdentifyTool(s, &ToolDeps{Identifier: &mockIdentifier{err: apperrors.ErrNoImages}, Logger: zap.NewNop()})

	response := callTool(t, s, "identify_parts", map[string]any{"images": []any{}})

	assert.True(t, response.Result.IsError)
	var errResp ErrorResponse
	decodeText(t, response, &errResp)
	assert.Equal(t, "no_images", errResp.Code)
}

func TestDecodeArgument(t *testing.T) {
	args := map[string]any{"images": []any{"a", "b"}, "bad": []any{1, 2}}

	var images []string
	ok, err := decodeArgument(args, "images", &images)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, images)

	ok, err = decodeArgument(args, "missing", &images)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = decodeArgument(args, "bad", &images)
	assert.Error(t, err)
}
