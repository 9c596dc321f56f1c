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
	"github.com/ironsheep/pagescan/internal/extract"
	"github.com/ironsheep/pagescan/internal/output"
	"github.com/ironsheep/pagescan/internal/source"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load("pagescan", os.Args[1:])
	switch {
	case errors.Is(err, config.ErrVersionRequested):
		fmt.Printf("pagescan %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return 0
	case errors.Is(err, pflag.ErrHelp):
		return 0
	case err != nil:
		fmt.Fprintf(os.Stderr, "pagescan: %v\n", err)
		return 2
	}
	if cfg.Input == "" {
		fmt.Fprintln(os.Stderr, "pagescan: no input given")
		return 2
	}

	logger := cfg.NewLogger(os.Stderr)
	logger.Debug("Starting", "version", Version, "commit", GitCommit, "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := source.Open(cfg.Input, cfg.FPS, logger)
	if err != nil {
		logger.Error("Failed to open input", "input", cfg.Input, "error", err)
		return 1
	}
	defer src.Close()

	sink, err := output.NewDirectory(cfg.Output, cfg.Format, cfg.JPEGQuality, logger)
	if err != nil {
		logger.Error("Failed to prepare output", "output", cfg.Output, "error", err)
		return 1
	}

	opts := cfg.ExtractOptions()
	var debug *output.DebugWriter
	if cfg.DebugDir != "" {
		debug, err = output.NewDebugWriter(cfg.DebugDir, logger)
		if err != nil {
			logger.Error("Failed to prepare debug output", "dir", cfg.DebugDir, "error", err)
			return 1
		}
		opts.OnStep = debug.OnStep
	}

	ext, err := extract.New(opts, logger)
	if err != nil {
		logger.Error("Invalid extraction options", "error", err)
		return 2
	}

	res, err := ext.Run(ctx, src, sink)
	if debug != nil {
		if derr := debug.Err(); derr != nil {
			logger.Warn("Debug frames incomplete", "written", debug.Written(), "error", derr)
		}
	}
	if err != nil {
		logger.Error("Extraction failed", "input", cfg.Input, "error", err)
		return 1
	}

	for _, p := range res.Pages {
		fmt.Printf("%s\t%s-%s\tframes=%d\tconfidence=%.2f\n",
			sink.PageFile(p.Index), p.StartTime, p.EndTime, p.FrameCount, p.Confidence)
	}
	if res.Fallback {
		fmt.Fprintf(os.Stderr, "pagescan: no stable page found; wrote %d raw frames\n", len(res.Pages))
	}
	return 0
}
