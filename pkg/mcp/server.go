// Package mcp exposes the generator over the Model Context Protocol so
// agent tooling can regenerate or verify validator files.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/bagsakan/pkg/mcplog"
)

const serverVersion = "0.1.0-dev"

// Server implements the MCP server, exposing generation and check tools.
type Server struct {
	mcpServer *server.MCPServer
	logger    *mcplog.Logger // may be nil if logging is disabled
}

// NewServer creates a new MCP server. Pass nil for logger to disable call
// logging.
func NewServer(logger *mcplog.Logger) *Server {
	s := &Server{logger: logger}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if logger != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.loggingMiddleware()))
	}

	s.mcpServer = server.NewMCPServer("bagsakan", serverVersion, opts...)

	s.mcpServer.AddTools(
		server.ServerTool{Tool: generateValidatorsTool(), Handler: s.handleGenerateValidators},
		server.ServerTool{Tool: checkValidatorsTool(), Handler: s.handleCheckValidators},
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// Close shuts down the logger if one is active. Should be deferred after
// NewServer.
func (s *Server) Close() error {
	if s.logger != nil {
		return s.logger.Close()
	}
	return nil
}
