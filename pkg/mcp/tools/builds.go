package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/brickwise/brickwise-engine/pkg/models"
	"github.com/brickwise/brickwise-engine/pkg/services"
)

// RegisterFindBuildsTool adds find_builds, which ranks catalog sets by how
// much of each one an owned inventory covers.
func RegisterFindBuildsTool(s toolAdder, deps *ToolDeps) {
	tool := mcp.NewTool(
		"find_builds",
		mcp.WithDescription(
			"Ranks catalog sets that could be built from an owned parts inventory. "+
				"Queries the catalog for sets containing a few distinctive owned parts, then "+
				"scores each set by min(1, owned pieces / set pieces) * 100. "+
				"Returns suggested_builds best first, with the pivot parts that were queried.",
		),
		mcp.WithArray(
			"parts",
			mcp.Required(),
			mcp.Description("Owned parts: objects with part_num, color_id (may be null) and quantity"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"part_num": map[string]any{"type": "string"},
					"color_id": map[string]any{"type": []string{"integer", "null"}},
					"quantity": map[string]any{"type": "integer"},
				},
			}),
		),
		mcp.WithNumber(
			"min_match_percentage",
			mcp.Description("Optional: minimum match score (0-100) replacing the server default"),
		),
		mcp.WithNumber(
			"min_confidence",
			mcp.Description("Optional: ignore identified parts below this classifier confidence (0-100)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := arguments(req)

		var parts []models.OwnedPart
		if _, err := decodeArgument(args, "parts", &parts); err != nil {
			return NewErrorResult("invalid_parameters", fmt.Sprintf("invalid parts: %v", err)), nil
		}

		var opts services.MatchOptions
		if v, ok := args["min_match_percentage"].(float64); ok {
			if v < 0 || v > 100 {
				return NewErrorResult("invalid_parameters", "min_match_percentage must be between 0 and 100"), nil
			}
			opts.MinMatchPercentage = &v
		}
		if v, ok := args["min_confidence"].(float64); ok {
			if v < 0 || v > 100 {
				return NewErrorResult("invalid_parameters", "min_confidence must be between 0 and 100"), nil
			}
			c := int(v)
			opts.MinConfidence = &c
		}

		result, err := deps.Matcher.FindBuilds(ctx, parts, opts)
		if err != nil {
			deps.Logger.Warn("find_builds failed", zap.Int("parts", len(parts)), zap.Error(err))
			return serviceErrorResult(err)
		}
		return jsonResult(result)
	})
}
