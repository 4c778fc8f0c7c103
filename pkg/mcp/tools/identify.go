package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// RegisterIdentifyTool adds identify_parts, which runs photos through
// detection and classification.
func RegisterIdentifyTool(s toolAdder, deps *ToolDeps) {
	tool := mcp.NewTool(
		"identify_parts",
		mcp.WithDescription(
			"Identifies the parts visible in one or more photos. Each detected part is "+
				"classified separately; identical parts appear once per detection. "+
				"Parts with source other than 'verified' have no part_num. "+
				"Photos that cannot be decoded are listed in failed_photos.",
		),
		mcp.WithArray(
			"images",
			mcp.Required(),
			mcp.Description("Photos as data URIs (data:image/jpeg;base64,...) or bare base64"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var images []string
		if _, err := decodeArgument(arguments(req), "images", &images); err != nil {
			return NewErrorResult("invalid_parameters", fmt.Sprintf("images must be a list of strings: %v", err)), nil
		}

		result, err := deps.Identifier.IdentifyEncoded(ctx, images)
		if err != nil {
			deps.Logger.Warn("identify_parts failed", zap.Int("images", len(images)), zap.Error(err))
			return serviceErrorResult(err)
		}
		return jsonResult(result)
	})
}
