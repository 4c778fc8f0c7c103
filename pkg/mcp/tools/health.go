package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

type healthResult struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Classifier string `json:"classifier,omitempty"`
}

// RegisterHealthTool adds a health check tool to the MCP server.
// The tool returns the server status, version and classifier circuit state.
func RegisterHealthTool(s toolAdder, version string, classifier CircuitReporter) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health status and version"),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := healthResult{Status: "ok", Version: version}
		if classifier != nil {
			result.Classifier = classifier.CircuitState().String()
		}
		return jsonResult(result)
	})
}
