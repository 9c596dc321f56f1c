//go:build gst

package source

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// Video decodes a video file through a paused GStreamer pipeline and seeks it
// frame by frame.
//
// Pipeline structure:
//
//	filesrc → decodebin → videoconvert → capsfilter(RGBA) → appsink
type Video struct {
	mu       sync.Mutex
	pipeline *gst.Pipeline
	sink     *app.Sink
	duration time.Duration
	path     string
}

// OpenVideo builds the decode pipeline for path and prerolls it. A nil
// logger uses slog.Default().
func OpenVideo(path string, logger *slog.Logger) (Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	gst.Init(nil)

	pipelineStr := fmt.Sprintf(
		"filesrc location=%q ! decodebin ! videoconvert ! "+
			"video/x-raw,format=RGBA ! appsink name=frames sync=false max-buffers=1",
		path,
	)
	logger.Debug("Creating video pipeline", "pipeline", pipelineStr)

	pipeline, err := gst.NewPipelineFromString(pipelineStr)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create pipeline: %w", ErrUnsupported, err)
	}

	elem, err := pipeline.GetElementByName("frames")
	if err != nil {
		pipeline.SetState(gst.StateNull)
		return nil, fmt.Errorf("failed to find appsink: %w", err)
	}
	sink := app.SinkFromElement(elem)

	if err := pipeline.SetState(gst.StatePaused); err != nil {
		pipeline.SetState(gst.StateNull)
		return nil, fmt.Errorf("failed to pause pipeline: %w", err)
	}

	// Prerolling blocks until the first frame is decoded and the duration is known.
	if sink.PullPreroll() == nil {
		pipeline.SetState(gst.StateNull)
		return nil, fmt.Errorf("%w: no video frames in %s", ErrUnsupported, path)
	}
	ok, ns := pipeline.QueryDuration(gst.FormatTime)
	if !ok || ns <= 0 {
		pipeline.SetState(gst.StateNull)
		return nil, fmt.Errorf("%w: unknown duration for %s", ErrUnsupported, path)
	}

	v := &Video{
		pipeline: pipeline,
		sink:     sink,
		duration: time.Duration(ns),
		path:     path,
	}
	logger.Info("Opened video", "path", path, "duration", v.duration)
	return v, nil
}

// Duration is the stream duration reported by the demuxer.
func (v *Video) Duration() time.Duration {
	return v.duration
}

// Frame seeks to at and returns the decoded frame.
func (v *Video) Frame(ctx context.Context, at time.Duration) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.pipeline.SeekSimple(int64(at), gst.FormatTime, gst.SeekFlagFlush|gst.SeekFlagAccurate) {
		return nil, fmt.Errorf("seek to %s failed", at)
	}

	sample := v.sink.PullPreroll()
	if sample == nil {
		return nil, fmt.Errorf("no frame at %s", at)
	}
	return sampleImage(sample)
}

// sampleImage copies an RGBA sample into a new image; GStreamer reuses the
// buffer.
func sampleImage(sample *gst.Sample) (image.Image, error) {
	caps := sample.GetCaps()
	if caps == nil || caps.GetSize() == 0 {
		return nil, fmt.Errorf("sample has no caps")
	}
	structure := caps.GetStructureAt(0)

	var width, height int
	if val, err := structure.GetValue("width"); err == nil {
		width, _ = val.(int)
	}
	if val, err := structure.GetValue("height"); err == nil {
		height, _ = val.(int)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("sample has no frame size")
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		return nil, fmt.Errorf("sample has no buffer")
	}
	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	defer buffer.Unmap()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	stride := len(data) / height
	if stride < width*4 {
		return nil, fmt.Errorf("buffer of %d bytes too small for %dx%d", len(data), width, height)
	}
	for y := 0; y < height; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+width*4], data[y*stride:])
	}
	return img, nil
}

// Close stops the pipeline.
func (v *Video) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("failed to stop pipeline: %w", err)
	}
	return nil
}
