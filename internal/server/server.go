package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ironsheep/pagescan/internal/detection"
	"github.com/ironsheep/pagescan/internal/extract"
	"github.com/ironsheep/pagescan/internal/imaging"
)

// Info identifies the server to MCP clients.
type Info struct {
	Name    string
	Version string
}

// Server handles MCP protocol communication
type Server struct {
	info      Info
	cache     *imaging.ImageCache
	opts      extract.Options
	detector  *detection.Detector
	logger    *slog.Logger
	mcpServer *mcpserver.MCPServer
	handlers  map[string]toolFunc
}

// New creates a new MCP server instance. opts are the extraction defaults
// for every tool; a nil logger uses slog.Default().
func New(info Info, opts extract.Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		info:     info,
		cache:    imaging.NewImageCache(),
		opts:     opts,
		detector: detection.NewDetector(opts.Detection),
		logger:   logger,
	}

	s.mcpServer = mcpserver.NewMCPServer(
		info.Name,
		info.Version,
		mcpserver.WithToolCapabilities(false),
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcpServer
}

// Run serves MCP over stdin/stdout until the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting MCP server", "name", s.info.Name, "version", s.info.Version)

	// stdout carries the protocol; transport errors go to the structured log.
	stdio := mcpserver.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
