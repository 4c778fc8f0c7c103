package tools

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/brickwise/brickwise-engine/pkg/apperrors"
)

// ErrorResponse represents a structured error in tool results.
// Returning it as a successful tool result keeps the error visible to the
// calling model instead of being swallowed by the MCP client.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use it for errors the caller can act on (bad parameters, nothing found).
// Upstream failures should still return Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// serviceErrorResult turns caller-fixable service errors into error results
// and passes everything else through as a Go error.
func serviceErrorResult(err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, apperrors.ErrNoImages):
		return NewErrorResult("no_images", err.Error()), nil
	case errors.Is(err, apperrors.ErrNoParts):
		return NewErrorResult("no_parts", err.Error()), nil
	case errors.Is(err, apperrors.ErrEmptyQuery):
		return NewErrorResult("invalid_parameters", err.Error()), nil
	case errors.Is(err, apperrors.ErrNotFound):
		return NewErrorResult("not_found", err.Error()), nil
	case errors.Is(err, apperrors.ErrUnavailable):
		return NewErrorResult("upstream_unavailable", err.Error()), nil
	default:
		return nil, err
	}
}
