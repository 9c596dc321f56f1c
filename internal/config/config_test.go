package config

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("pagescan", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.Equal(t, "png", cfg.Format)
	assert.Equal(t, 500*time.Millisecond, cfg.Interval)
	assert.Equal(t, 4, cfg.MaxPages)
	assert.Equal(t, 30, cfg.MaxFrames)
	assert.Equal(t, DefaultFPS, cfg.FPS)
	assert.True(t, cfg.Merge)
	assert.True(t, cfg.Align)
	assert.Equal(t, 800, cfg.AnalysisMaxDim)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Input)
}

func TestLoad_Flags(t *testing.T) {
	cfg, err := Load("pagescan", []string{
		"--input=scan.mp4",
		"-o", "out",
		"--format=JPG",
		"--interval=250ms",
		"--max-pages=0",
		"--merge=false",
		"--loglevel=debug",
	})
	require.NoError(t, err)

	assert.Equal(t, "scan.mp4", cfg.Input)
	assert.Equal(t, "out", cfg.Output)
	assert.Equal(t, "jpg", cfg.Format)
	assert.Equal(t, 250*time.Millisecond, cfg.Interval)
	assert.Equal(t, 0, cfg.MaxPages)
	assert.False(t, cfg.Merge)
	assert.True(t, cfg.IsDebug())
}

func TestLoad_PositionalInput(t *testing.T) {
	cfg, err := Load("pagescan", []string{"--fps=30", "frames/"})
	require.NoError(t, err)
	assert.Equal(t, "frames/", cfg.Input)
	assert.Equal(t, 30.0, cfg.FPS)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PAGESCAN_MAX_PAGES", "9")
	t.Setenv("PAGESCAN_INTERVAL", "2s")
	t.Setenv("PAGESCAN_ALIGN", "false")

	cfg, err := Load("pagescan", nil)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.MaxPages)
	assert.Equal(t, 2*time.Second, cfg.Interval)
	assert.False(t, cfg.Align)

	// Flags win over the environment
	cfg, err = Load("pagescan", []string{"--max-pages=3"})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxPages)
}

func TestLoad_Version(t *testing.T) {
	_, err := Load("pagescan", []string{"--version"})
	assert.ErrorIs(t, err, ErrVersionRequested)
}

func TestLoad_Help(t *testing.T) {
	_, err := Load("pagescan", []string{"--help"})
	assert.ErrorIs(t, err, pflag.ErrHelp)
}

func TestLoad_UnknownFlag(t *testing.T) {
	_, err := Load("pagescan", []string{"--frobnicate"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"zero interval", func(c *Config) { c.Interval = 0 }, "interval"},
		{"zero fps", func(c *Config) { c.FPS = 0 }, "fps"},
		{"negative pages", func(c *Config) { c.MaxPages = -1 }, "max pages"},
		{"negative frames", func(c *Config) { c.MaxFrames = -2 }, "max frames"},
		{"negative analysis size", func(c *Config) { c.AnalysisMaxDim = -1 }, "analysis"},
		{"jpeg quality", func(c *Config) { c.JPEGQuality = 101 }, "jpeg quality"},
		{"format", func(c *Config) { c.Format = "webp" }, "unsupported format"},
		{"log level", func(c *Config) { c.LogLevel = "verbose" }, "invalid log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestExtractOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Interval = time.Second
	cfg.MinQuality = 42
	cfg.MaxPages = 7
	cfg.MaxFrames = 3
	cfg.Merge = false
	cfg.Align = false
	cfg.AnalysisMaxDim = 0

	opts := cfg.ExtractOptions()
	assert.Equal(t, time.Second, opts.Interval)
	assert.Equal(t, 42.0, opts.MinQuality)
	assert.Equal(t, 7, opts.MaxPages)
	assert.Equal(t, 3, opts.MaxFrames)
	assert.False(t, opts.Merge)
	assert.False(t, opts.Merging.Align)
	assert.Zero(t, opts.AnalysisMaxDim)
	assert.NoError(t, opts.Validate())
}

func TestNewLogger(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "warn"

	var buf bytes.Buffer
	logger := cfg.NewLogger(&buf)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))

	logger.Warn("careful", "page", 2)
	assert.Contains(t, buf.String(), "careful")
	assert.Contains(t, buf.String(), "page=2")
}

func TestString(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Input = "scan.mp4"
	assert.Contains(t, cfg.String(), "Input: scan.mp4")
}
