package tracking

import (
	"image"
	"time"

	"github.com/ironsheep/pagescan/internal/detection"
)

// Options configures a Tracker.
type Options struct {
	// StabilityThreshold is the corner jitter, in pixels, tolerated between
	// consecutive detections. The effective tolerance is twice this value to
	// allow for hand tremor.
	StabilityThreshold float64 `json:"stability_threshold"`

	// StabilityDuration is how long detections may be missing before the
	// history is discarded. A single missed frame does not reset tracking.
	StabilityDuration time.Duration `json:"stability_duration"`

	// MotionThreshold is the average motion score (over the last two samples)
	// below which the scene counts as still.
	MotionThreshold float64 `json:"motion_threshold"`

	// HistorySize bounds both the detection and motion windows.
	HistorySize int `json:"history_size"`
}

// DefaultOptions returns the tracker defaults.
func DefaultOptions() Options {
	return Options{
		StabilityThreshold: 10,
		StabilityDuration:  time.Second,
		MotionThreshold:    0.15,
		HistorySize:        10,
	}
}

// MotionSample is one entry of the motion window.
type MotionSample struct {
	Score      float64       `json:"score"`
	FrameIndex int           `json:"frame_index"`
	Timestamp  time.Duration `json:"timestamp"`
}

// Tracker is a sliding window over recent detections and motion scores.
//
// A Tracker belongs to a single video run and is not safe for concurrent use.
//
// The last frame seen survives Reset so that the first motion score after a
// reset still compares against real pixels instead of reporting a false zero.
type Tracker struct {
	opts Options

	detections []*detection.Page
	motion     []MotionSample

	previous      *image.RGBA
	lastDetection time.Duration
	haveDetection bool
}

// NewTracker creates an empty tracker.
func NewTracker(opts Options) *Tracker {
	if opts.HistorySize <= 0 {
		opts.HistorySize = DefaultOptions().HistorySize
	}
	return &Tracker{opts: opts}
}

// AddDetection records one analysed frame and returns its motion score.
//
// The motion score against the previously recorded frame is always appended.
// A non-nil page is appended to the detection window. A nil page clears both
// windows only when more than StabilityDuration has passed since the last
// recorded detection.
//
// The tracker keeps a reference to frame until the next call; the caller must
// not modify it.
func (t *Tracker) AddDetection(page *detection.Page, frame *image.RGBA, frameIndex int, at time.Duration) float64 {
	score := Motion(frame, t.previous)
	t.previous = frame

	t.motion = append(t.motion, MotionSample{Score: score, FrameIndex: frameIndex, Timestamp: at})
	if len(t.motion) > t.opts.HistorySize {
		t.motion = t.motion[len(t.motion)-t.opts.HistorySize:]
	}

	if page != nil {
		t.detections = append(t.detections, page)
		if len(t.detections) > t.opts.HistorySize {
			t.detections = t.detections[len(t.detections)-t.opts.HistorySize:]
		}
		t.lastDetection = at
		t.haveDetection = true
		return score
	}

	if t.haveDetection && at-t.lastDetection > t.opts.StabilityDuration {
		t.Reset()
	}
	return score
}

// IsStable reports whether the page has settled: at least two detections, a
// mean motion over the last two samples below MotionThreshold, and no corner
// of the last two detections moving more than 2*StabilityThreshold.
func (t *Tracker) IsStable() bool {
	n := len(t.detections)
	if n < 2 || len(t.motion) == 0 {
		return false
	}

	recent := t.motion
	if len(recent) > 2 {
		recent = recent[len(recent)-2:]
	}
	var sum float64
	for _, m := range recent {
		sum += m.Score
	}
	if sum/float64(len(recent)) >= t.opts.MotionThreshold {
		return false
	}

	older, newer := t.detections[n-2], t.detections[n-1]
	return older.Corners.MaxCornerShift(newer.Corners) <= 2*t.opts.StabilityThreshold
}

// StableDetection returns the newest detection when IsStable, otherwise nil.
func (t *Tracker) StableDetection() *detection.Page {
	if !t.IsStable() {
		return nil
	}
	return t.detections[len(t.detections)-1]
}

// Reset clears both windows. The last-seen frame is kept.
func (t *Tracker) Reset() {
	t.detections = t.detections[:0]
	t.motion = t.motion[:0]
	t.haveDetection = false
}

// Detections returns the number of detections in the window.
func (t *Tracker) Detections() int {
	return len(t.detections)
}

// MotionHistory returns a copy of the motion window, oldest first.
func (t *Tracker) MotionHistory() []MotionSample {
	out := make([]MotionSample, len(t.motion))
	copy(out, t.motion)
	return out
}
