//go:build !gst

package source

import (
	"fmt"
	"log/slog"
)

// OpenVideo is unavailable without GStreamer. Build with -tags gst to decode
// video files, or extract frames to a directory first.
func OpenVideo(path string, _ *slog.Logger) (Source, error) {
	return nil, fmt.Errorf("%w: %s (video decoding requires a build with -tags gst)", ErrUnsupported, path)
}
