// Package source provides frame sources for page extraction: image sequences
// on disk, video files decoded through GStreamer, and in-memory timelines.
//
// Every source returns a fresh image from each Frame call. A source serves one
// extraction at a time.
package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"time"
)

// ErrUnsupported is returned for inputs this build cannot decode.
var ErrUnsupported = errors.New("unsupported input")

// DefaultFPS is the frame rate assumed for image sequences.
const DefaultFPS = 10

// Source is a seekable frame source that may hold decoder resources.
type Source interface {
	Duration() time.Duration
	Frame(ctx context.Context, at time.Duration) (image.Image, error)
	Close() error
}

// Open picks a source for path: a directory is read as an image sequence at
// fps frames per second, anything else is decoded as a video. A nil logger
// uses slog.Default().
func Open(path string, fps float64, logger *slog.Logger) (Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	if !info.IsDir() {
		return OpenVideo(path, logger)
	}

	dir, err := NewDirectory(path, fps)
	if err != nil {
		return nil, err
	}
	logger.Info("Opened frame directory", "path", path, "frames", dir.Len(), "duration", dir.Duration())
	return dir, nil
}
