// Package mcp exposes the brick tools over the Model Context Protocol.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/brickwise/brickwise-engine/pkg/mcp/tools"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "brickwise-engine"

// Server wraps the mcp-go MCPServer with the brick tool set registered.
type Server struct {
	mcp    *server.MCPServer
	logger *zap.Logger
}

// NewServer creates an MCP server and registers every tool deps can serve.
func NewServer(deps *tools.ToolDeps, logger *zap.Logger) *Server {
	mcpServer := server.NewMCPServer(
		ServerName,
		deps.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	if deps.Logger == nil {
		deps.Logger = logger
	}
	tools.RegisterAll(mcpServer, deps)

	return &Server{
		mcp:    mcpServer,
		logger: logger,
	}
}

// MCP returns the underlying MCPServer.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// NewStreamableHTTPServer creates an HTTP transport server wrapping this MCP server.
// The HTTP mux handles routing to /mcp, so no endpoint path is configured here.
func (s *Server) NewStreamableHTTPServer() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(
		s.mcp,
		server.WithStateLess(true),
	)
}
