package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/brickwise/brickwise-engine/pkg/models"
)

type searchSetsResult struct {
	Query   string                   `json:"query"`
	Results []models.SetSearchResult `json:"results"`
}

// RegisterSearchSetsTool adds search_sets, a free-text catalog set search.
func RegisterSearchSetsTool(s toolAdder, deps *ToolDeps) {
	tool := mcp.NewTool(
		"search_sets",
		mcp.WithDescription(
			"Searches the Rebrickable catalog for sets by name or number. "+
				"Returns up to 20 sets with id, name, image, part count and year. "+
				"Example: search_sets(query='castle').",
		),
		mcp.WithString(
			"query",
			mcp.Required(),
			mcp.Description("Set name or number (e.g., 'castle', '10305')"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return nil, err
		}
		query = strings.TrimSpace(query)
		if query == "" {
			return NewErrorResult("invalid_parameters", "query parameter cannot be empty"), nil
		}

		results, err := deps.Sets.SearchSets(ctx, query)
		if err != nil {
			deps.Logger.Warn("search_sets failed", zap.String("query", query), zap.Error(err))
			return serviceErrorResult(err)
		}
		if results == nil {
			results = []models.SetSearchResult{}
		}
		return jsonResult(searchSetsResult{Query: query, Results: results})
	})
}
