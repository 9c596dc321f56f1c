package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/ironsheep/pagescan/internal/config"
	"github.com/ironsheep/pagescan/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Flags and PAGESCAN_* variables set the extraction defaults for every tool.
	cfg, err := config.Load("pagescan-mcp", os.Args[1:])
	switch {
	case errors.Is(err, config.ErrVersionRequested):
		fmt.Printf("pagescan-mcp %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	case errors.Is(err, pflag.ErrHelp):
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "This server communicates via MCP protocol over stdin/stdout.")
		fmt.Fprintln(os.Stderr, "Configure it in your MCP client (e.g., Claude Desktop).")
		return
	case err != nil:
		fmt.Fprintf(os.Stderr, "pagescan-mcp: %v\n", err)
		os.Exit(2)
	}

	// Logging goes to stderr (stdout is for MCP protocol)
	logger := cfg.NewLogger(os.Stderr)
	if cfg.IsDebug() {
		logger.Debug("Page scanner MCP server", "version", Version, "built", BuildTime, "commit", GitCommit)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Info{Name: "pagescan", Version: Version}, cfg.ExtractOptions(), logger)
	if err := srv.Run(ctx); err != nil {
		logger.Error("Server error", "error", err)
		stop()
		os.Exit(1)
	}
}
