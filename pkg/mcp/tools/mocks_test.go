package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"

	"github.com/brickwise/brickwise-engine/pkg/llm"
	"github.com/brickwise/brickwise-engine/pkg/models"
	"github.com/brickwise/brickwise-engine/pkg/services"
)

type mockIdentifier struct {
	images []string
	result *services.BatchResult
	err    error
}

func (m *mockIdentifier) Identify(ctx context.Context, photos []models.Photo) (*services.BatchResult, error) {
	return m.result, m.err
}

func (m *mockIdentifier) IdentifyEncoded(ctx context.Context, images []string) (*services.BatchResult, error) {
	m.images = images
	return m.result, m.err
}

type mockMatcher struct {
	parts  []models.OwnedPart
	opts   services.MatchOptions
	result *services.MatchResult
	err    error
}

func (m *mockMatcher) FindBuilds(ctx context.Context, owned []models.OwnedPart, opts services.MatchOptions) (*services.MatchResult, error) {
	m.parts = owned
	m.opts = opts
	return m.result, m.err
}

type mockSearcher struct {
	query   string
	results []models.SetSearchResult
	err     error
}

func (m *mockSearcher) SearchSets(ctx context.Context, query string) ([]models.SetSearchResult, error) {
	m.query = query
	return m.results, m.err
}

type fixedCircuit llm.CircuitState

func (c fixedCircuit) CircuitState() llm.CircuitState {
	return llm.CircuitState(c)
}

// toolResponse is the decoded JSON-RPC response of a tools/call.
type toolResponse struct {
	Result struct {
		Content []mcp.TextContent `json:"content"`
		IsError bool              `json:"isError"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// callTool invokes a registered tool through the server's JSON-RPC handler.
func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) toolResponse {
	t.Helper()
	request, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	})
	require.NoError(t, err)

	result := s.HandleMessage(context.Background(), request)
	resultBytes, err := json.Marshal(result)
	require.NoError(t, err)

	var response toolResponse
	require.NoError(t, json.Unmarshal(resultBytes, &response))
	return response
}

// decodeText unmarshals the first text content of a tool response into dst.
func decodeText(t *testing.T, response toolResponse, dst any) {
	t.Helper()
	require.Nil(t, response.Error, "unexpected JSON-RPC error")
	require.NotEmpty(t, response.Result.Content)
	require.NoError(t, json.Unmarshal([]byte(response.Result.Content[0].Text), dst))
}

func newTestServer() *server.MCPServer {
	return server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
}
