package extract

import (
	"context"
	"errors"
	"image"
	"time"
)

var (
	// ErrSource wraps any failure to seek or decode a frame. It is terminal
	// for the run.
	ErrSource = errors.New("frame source failed")

	// ErrNoOutput is returned when the source yields no usable frames at all.
	ErrNoOutput = errors.New("no frames produced")
)

// FrameSource supplies frames sampled from one video.
//
// Frame seeks to at and returns the frame shown there. It may block on I/O and
// should honour ctx. Every call must return a fresh image that the source
// never modifies afterwards; the extractor holds on to frames while a page is
// being captured.
type FrameSource interface {
	Duration() time.Duration
	Frame(ctx context.Context, at time.Duration) (image.Image, error)
}

// Sink receives the ordered page results of a finished run.
type Sink interface {
	WritePages(ctx context.Context, result *Result) error
}
