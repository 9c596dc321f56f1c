package extract

import (
	"fmt"
	"time"

	"github.com/ironsheep/pagescan/internal/content"
	"github.com/ironsheep/pagescan/internal/detection"
	"github.com/ironsheep/pagescan/internal/merge"
	"github.com/ironsheep/pagescan/internal/tracking"
)

// Options configures an Extractor. Build it from DefaultOptions; it is copied
// into the Extractor and never modified afterwards.
type Options struct {
	// Interval is the time step between sampled frames.
	Interval time.Duration `json:"interval"`

	// MinQuality is the sharpness (Laplacian variance) a frame needs to be
	// captured, and to be kept by the fallback pass.
	MinQuality float64 `json:"min_quality"`

	// MaxPages stops scanning once this many pages are emitted. Zero means no
	// limit.
	MaxPages int `json:"max_pages"`

	// MaxFrames caps the fallback frame set. Zero means no limit.
	MaxFrames int `json:"max_frames"`

	// AcceptConfidence is the detection confidence floor for capture.
	AcceptConfidence float64 `json:"accept_confidence"`

	// SameThreshold: histogram distance under which a frame continues the
	// current page, provided it arrives within SameWindow of the page's last
	// captured frame.
	SameThreshold float64       `json:"same_threshold"`
	SameWindow    time.Duration `json:"same_window"`

	// DifferentThreshold: histogram distance at or above which a frame starts
	// a new page. Distances between the two thresholds are treated as
	// transition frames and skipped.
	DifferentThreshold float64 `json:"different_threshold"`

	// DuplicateThreshold: histogram distance under which a new page is a
	// repeat of one already emitted.
	DuplicateThreshold float64 `json:"duplicate_threshold"`

	// MinFrames is the number of captured frames a page needs to be emitted.
	MinFrames int `json:"min_frames"`

	// AnalysisMaxDim bounds the longer side of the frame used for detection,
	// motion, histograms and sharpness. Zero analyses at full resolution.
	AnalysisMaxDim int `json:"analysis_max_dim"`

	// HistogramBins is the content histogram resolution.
	HistogramBins int `json:"histogram_bins"`

	// Merge composites each page from several frames instead of using the
	// single sharpest one.
	Merge bool `json:"merge"`

	Detection detection.Options   `json:"detection"`
	Tracking  tracking.Options    `json:"tracking"`
	Merging   merge.Options       `json:"merging"`
	Selection merge.SelectOptions `json:"selection"`

	// OnStep, when set, is called synchronously after every analysed frame.
	OnStep func(Step) `json:"-"`
}

// DefaultOptions returns the extraction defaults.
func DefaultOptions() Options {
	return Options{
		Interval:           500 * time.Millisecond,
		MinQuality:         10,
		MaxPages:           4,
		MaxFrames:          30,
		AcceptConfidence:   0.5,
		SameThreshold:      0.25,
		SameWindow:         2500 * time.Millisecond,
		DifferentThreshold: 0.5,
		DuplicateThreshold: 0.15,
		MinFrames:          2,
		AnalysisMaxDim:     800,
		HistogramBins:      content.Bins,
		Merge:              true,
		Detection:          detection.DefaultOptions(),
		Tracking:           tracking.DefaultOptions(),
		Merging:            merge.DefaultOptions(),
		Selection:          merge.DefaultSelectOptions(),
	}
}

// Validate reports option combinations the extractor cannot run with.
func (o Options) Validate() error {
	if o.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", o.Interval)
	}
	if o.MaxPages < 0 || o.MaxFrames < 0 {
		return fmt.Errorf("max pages (%d) and max frames (%d) must not be negative", o.MaxPages, o.MaxFrames)
	}
	if o.SameThreshold > o.DifferentThreshold {
		return fmt.Errorf("same threshold %.2f exceeds different threshold %.2f", o.SameThreshold, o.DifferentThreshold)
	}
	if o.MinFrames < 1 {
		return fmt.Errorf("min frames must be at least 1, got %d", o.MinFrames)
	}
	return nil
}

// Decision is what the extractor did with one analysed frame.
type Decision string

// Per-frame decisions reported through Options.OnStep.
const (
	DecisionNoPage    Decision = "no_page"
	DecisionUnstable  Decision = "unstable"
	DecisionRejected  Decision = "rejected"
	DecisionStarted   Decision = "started"
	DecisionAppended  Decision = "appended"
	DecisionDuplicate Decision = "duplicate"
	DecisionSkipped   Decision = "skipped"
)
