package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ironsheep/pagescan/internal/extract"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. PAGESCAN_MAX_PAGES.
	EnvPrefix = "PAGESCAN"

	// Default values
	DefaultOutput      = "pages"
	DefaultFormat      = "png"
	DefaultLogLevel    = "info"
	DefaultFPS         = 10.0
	DefaultJPEGQuality = 92
)

// ErrVersionRequested is returned by Load when --version was given.
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the pagescan binaries
type Config struct {
	// Input and output
	Input       string
	Output      string
	Format      string
	JPEGQuality int
	DebugDir    string

	// FPS is the frame rate assumed for image-sequence inputs.
	FPS float64

	// Extraction
	Interval       time.Duration
	MinQuality     float64
	MaxPages       int
	MaxFrames      int
	Merge          bool
	Align          bool
	AnalysisMaxDim int

	LogLevel string
}

// DefaultConfig returns a configuration with the extraction defaults
func DefaultConfig() *Config {
	opts := extract.DefaultOptions()
	return &Config{
		Output:         DefaultOutput,
		Format:         DefaultFormat,
		JPEGQuality:    DefaultJPEGQuality,
		FPS:            DefaultFPS,
		Interval:       opts.Interval,
		MinQuality:     opts.MinQuality,
		MaxPages:       opts.MaxPages,
		MaxFrames:      opts.MaxFrames,
		Merge:          opts.Merge,
		Align:          opts.Merging.Align,
		AnalysisMaxDim: opts.AnalysisMaxDim,
		LogLevel:       DefaultLogLevel,
	}
}

// Load parses args (without the program name) on top of PAGESCAN_*
// environment variables and the defaults. A single positional argument is
// taken as the input when --input is not set.
func Load(name string, args []string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)

	setupViperEnvironment(v, cfg)
	defineCommandLineFlags(flags, cfg)
	bindFlagsToViper(v, flags)
	setupUsageMessage(flags, name)

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if version, _ := flags.GetBool("version"); version {
		return nil, ErrVersionRequested
	}

	populateConfigFromViper(v, cfg)
	if cfg.Input == "" && flags.NArg() > 0 {
		cfg.Input = flags.Arg(0)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("input", cfg.Input)
	v.SetDefault("output", cfg.Output)
	v.SetDefault("format", cfg.Format)
	v.SetDefault("jpeg-quality", cfg.JPEGQuality)
	v.SetDefault("debug-dir", cfg.DebugDir)
	v.SetDefault("fps", cfg.FPS)
	v.SetDefault("interval", cfg.Interval)
	v.SetDefault("min-quality", cfg.MinQuality)
	v.SetDefault("max-pages", cfg.MaxPages)
	v.SetDefault("max-frames", cfg.MaxFrames)
	v.SetDefault("merge", cfg.Merge)
	v.SetDefault("align", cfg.Align)
	v.SetDefault("analysis-max-dim", cfg.AnalysisMaxDim)
	v.SetDefault("loglevel", cfg.LogLevel)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(flags *pflag.FlagSet, cfg *Config) {
	flags.StringP("input", "i", cfg.Input, "Video file or directory of frame images")
	flags.StringP("output", "o", cfg.Output, "Directory the pages and manifest are written to")
	flags.String("format", cfg.Format, "Page image format (png, jpg)")
	flags.Int("jpeg-quality", cfg.JPEGQuality, "JPEG quality 1-100")
	flags.String("debug-dir", cfg.DebugDir, "Write an annotated image of every analysed frame here")
	flags.Float64("fps", cfg.FPS, "Frame rate of image-sequence inputs")
	flags.Duration("interval", cfg.Interval, "Time between analysed frames")
	flags.Float64("min-quality", cfg.MinQuality, "Minimum sharpness for a frame to be captured")
	flags.Int("max-pages", cfg.MaxPages, "Stop after this many pages (0 = no limit)")
	flags.Int("max-frames", cfg.MaxFrames, "Cap on raw frames returned when no page is found (0 = no limit)")
	flags.Bool("merge", cfg.Merge, "Composite each page from several frames")
	flags.Bool("align", cfg.Align, "Align frames before merging")
	flags.Int("analysis-max-dim", cfg.AnalysisMaxDim, "Longest side of the frame copy used for analysis (0 = full size)")
	flags.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.BoolP("version", "v", false, "Print version information")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == "version" {
			return
		}
		_ = v.BindPFlag(f.Name, f)
	})
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage(flags *pflag.FlagSet, name string) {
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", name)
		fmt.Fprintf(os.Stderr, "\n%s - extract flattened document pages from a page-flipping video\n\n", name)
		fmt.Fprintf(os.Stderr, "Options:\n")
		flags.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s scan.mp4                       # pages into ./pages\n", name)
		fmt.Fprintf(os.Stderr, "  %s --fps=30 -o out frames/        # image sequence input\n", name)
		fmt.Fprintf(os.Stderr, "  %s --max-pages=0 --merge=false a.mp4\n", name)
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  Every option can be set as %s_<OPTION>, e.g. %s_MAX_PAGES=8\n", EnvPrefix, EnvPrefix)
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.Input = v.GetString("input")
	cfg.Output = v.GetString("output")
	cfg.Format = strings.ToLower(v.GetString("format"))
	cfg.JPEGQuality = v.GetInt("jpeg-quality")
	cfg.DebugDir = v.GetString("debug-dir")
	cfg.FPS = v.GetFloat64("fps")
	cfg.Interval = v.GetDuration("interval")
	cfg.MinQuality = v.GetFloat64("min-quality")
	cfg.MaxPages = v.GetInt("max-pages")
	cfg.MaxFrames = v.GetInt("max-frames")
	cfg.Merge = v.GetBool("merge")
	cfg.Align = v.GetBool("align")
	cfg.AnalysisMaxDim = v.GetInt("analysis-max-dim")
	cfg.LogLevel = strings.ToLower(v.GetString("loglevel"))
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return errors.New("interval must be positive")
	}
	if c.FPS <= 0 {
		return errors.New("fps must be positive")
	}
	if c.MaxPages < 0 {
		return errors.New("max pages must not be negative")
	}
	if c.MaxFrames < 0 {
		return errors.New("max frames must not be negative")
	}
	if c.AnalysisMaxDim < 0 {
		return errors.New("analysis max dim must not be negative")
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality must be between 1 and 100, got %d", c.JPEGQuality)
	}
	switch c.Format {
	case "png", "jpg", "jpeg":
	default:
		return fmt.Errorf("unsupported format: %s (must be png or jpg)", c.Format)
	}
	if _, ok := logLevels[c.LogLevel]; !ok {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	return nil
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// ExtractOptions maps the configuration onto extraction options.
func (c *Config) ExtractOptions() extract.Options {
	opts := extract.DefaultOptions()
	opts.Interval = c.Interval
	opts.MinQuality = c.MinQuality
	opts.MaxPages = c.MaxPages
	opts.MaxFrames = c.MaxFrames
	opts.Merge = c.Merge
	opts.Merging.Align = c.Align
	opts.AnalysisMaxDim = c.AnalysisMaxDim
	return opts
}

// NewLogger returns a text logger writing to w at the configured level.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevels[c.LogLevel]}))
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Input: %s, Output: %s, Format: %s, Interval: %s, MaxPages: %d, Merge: %t, LogLevel: %s}",
		c.Input, c.Output, c.Format, c.Interval, c.MaxPages, c.Merge, c.LogLevel)
}
