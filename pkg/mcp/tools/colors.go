package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/brickwise/brickwise-engine/pkg/colors"
)

type colorResult struct {
	Label     string `json:"label"`
	ColorID   *int   `json:"color_id"`
	ColorName string `json:"color_name,omitempty"`
}

// RegisterColorTool adds resolve_color, which maps a free-text description
// such as "dark bluish gray 2x4 brick" to a catalog color id.
func RegisterColorTool(s toolAdder) {
	tool := mcp.NewTool(
		"resolve_color",
		mcp.WithDescription(
			"Maps a free-text part description to a Rebrickable color id using the first "+
				"matching color keyword. Returns color_id null when no color is named. "+
				"Example: resolve_color(label='trans clear round plate') returns color_id 47.",
		),
		mcp.WithString(
			"label",
			mcp.Required(),
			mcp.Description("Part description containing a color name"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		label, err := req.RequireString("label")
		if err != nil {
			return nil, err
		}
		label = strings.TrimSpace(label)
		if label == "" {
			return NewErrorResult("invalid_parameters", "label parameter cannot be empty"), nil
		}

		result := colorResult{Label: label, ColorID: colors.Resolve(label)}
		if result.ColorID != nil {
			result.ColorName = colors.Name(*result.ColorID)
		}
		return jsonResult(result)
	})
}
