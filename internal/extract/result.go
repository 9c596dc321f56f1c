package extract

import (
	"image"
	"time"

	"github.com/ironsheep/pagescan/internal/detection"
	"github.com/ironsheep/pagescan/internal/geometry"
)

// PageResult is one output page.
type PageResult struct {
	ID    string `json:"id"`
	Index int    `json:"index"`

	// Image is the rectified page, or the raw frame for fallback output and
	// pages whose rectification failed.
	Image *image.RGBA `json:"-"`

	// Corners are the page corners in source-frame coordinates; nil for
	// fallback frames.
	Corners *geometry.Quad `json:"corners,omitempty"`

	Confidence   float64 `json:"confidence"`
	QualityScore float64 `json:"quality_score"`

	StartTime  time.Duration `json:"start_time"`
	EndTime    time.Duration `json:"end_time"`
	FrameCount int           `json:"frame_count"`

	// Corrected is false when the page could not be rectified.
	Corrected bool `json:"corrected"`

	PoorRegions      int  `json:"poor_regions"`
	AlignmentSuccess bool `json:"alignment_success"`

	// Fallback marks raw frames returned because no page was detected.
	Fallback bool `json:"fallback"`
}

// Result is the outcome of one extraction run.
type Result struct {
	RunID string       `json:"run_id"`
	Pages []PageResult `json:"pages"`

	// Fallback is true when no page was detected and Pages holds raw frames.
	Fallback bool `json:"fallback"`

	FramesAnalyzed int           `json:"frames_analyzed"`
	Duration       time.Duration `json:"duration"`
	Elapsed        time.Duration `json:"elapsed"`
}

// Step describes one analysed frame, for debugging and progress reporting.
type Step struct {
	Index     int
	Timestamp time.Duration

	// Frame is the analysis-resolution frame; Page corners refer to it.
	Frame *image.RGBA
	Page  *detection.Page

	Motion   float64
	Quality  float64
	Stable   bool
	Decision Decision

	// Distance is the histogram distance to the active page, or -1.
	Distance float64
}
