// Package extract turns a video of someone flipping through a document into
// one flattened image per page.
//
// An Extractor walks the video at a fixed interval. Each sampled frame is
// detected, tracked for stability and compared by content against the page
// being captured. Stable frames of the same page are collected into a burst;
// when the content changes the burst is merged, rectified and emitted. When no
// page is ever captured the run falls back to raw frames that pass the
// quality floor.
//
// # Thread Safety
//
// An Extractor is safe for concurrent use. All mutable state lives in the
// per-call run, so several videos can be processed in parallel.
package extract

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/pagescan/internal/content"
	"github.com/ironsheep/pagescan/internal/detection"
	"github.com/ironsheep/pagescan/internal/imaging"
	"github.com/ironsheep/pagescan/internal/merge"
	"github.com/ironsheep/pagescan/internal/rectify"
	"github.com/ironsheep/pagescan/internal/tracking"
)

// Extractor runs page extraction over frame sources.
type Extractor struct {
	opts     Options
	detector *detection.Detector
	logger   *slog.Logger
}

// New creates an Extractor. A nil logger uses slog.Default().
func New(opts Options, logger *slog.Logger) (*Extractor, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid extraction options: %w", err)
	}
	if opts.HistogramBins <= 0 {
		opts.HistogramBins = content.Bins
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		opts:     opts,
		detector: detection.NewDetector(opts.Detection),
		logger:   logger,
	}, nil
}

// Options returns the extractor's configuration.
func (e *Extractor) Options() Options {
	return e.opts
}

// Run extracts the pages of src and hands the result to sink.
func (e *Extractor) Run(ctx context.Context, src FrameSource, sink Sink) (*Result, error) {
	res, err := e.Extract(ctx, src)
	if err != nil {
		return nil, err
	}
	if err := sink.WritePages(ctx, res); err != nil {
		return res, fmt.Errorf("failed to write pages: %w", err)
	}
	return res, nil
}

// run is the mutable state of one Extract call.
type run struct {
	e       *Extractor
	id      string
	log     *slog.Logger
	tracker *tracking.Tracker

	active  *candidate
	emitted []content.Histogram
	pages   []PageResult

	// qualities records the sharpness of every analysed step for the
	// fallback pass; a negative value marks a skipped step.
	qualities []float64
}

// Extract processes src and returns the captured pages in order.
//
// Returns an error wrapping ErrSource when a frame cannot be read,
// ErrNoOutput when the source yields no usable frame, or ctx.Err() when the
// run is cancelled. Pages are returned in the order they first became stable.
func (e *Extractor) Extract(ctx context.Context, src FrameSource) (*Result, error) {
	started := time.Now()
	r := &run{
		e:       e,
		id:      uuid.NewString(),
		tracker: tracking.NewTracker(e.opts.Tracking),
	}
	r.log = e.logger.With("run_id", r.id)

	duration := src.Duration()
	r.log.Info("Starting page extraction",
		"duration", duration,
		"interval", e.opts.Interval,
		"max_pages", e.opts.MaxPages)

	steps := int(duration / e.opts.Interval)
	for i := 0; i < steps; i++ {
		at := time.Duration(i) * e.opts.Interval
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := r.step(ctx, src, i, at); err != nil {
			return nil, err
		}
		if e.opts.MaxPages > 0 && len(r.pages) >= e.opts.MaxPages {
			r.log.Info("Page limit reached", "pages", len(r.pages), "timestamp", at)
			break
		}
	}
	r.finalize()

	if len(r.qualities) == 0 {
		return nil, ErrNoOutput
	}

	result := &Result{
		RunID:          r.id,
		Pages:          r.pages,
		FramesAnalyzed: len(r.qualities),
		Duration:       duration,
	}

	if len(result.Pages) == 0 {
		r.log.Warn("No pages detected, falling back to raw frames")
		pages, err := r.fallback(ctx, src)
		if err != nil {
			return nil, err
		}
		if len(pages) == 0 {
			return nil, ErrNoOutput
		}
		result.Pages = pages
		result.Fallback = true
	}

	result.Elapsed = time.Since(started)
	r.log.Info("Page extraction complete",
		"pages", len(result.Pages),
		"fallback", result.Fallback,
		"frames", result.FramesAnalyzed,
		"elapsed", result.Elapsed)
	return result, nil
}

// fetch reads the frame at the given time and converts it to RGBA.
func fetch(ctx context.Context, src FrameSource, at time.Duration) (*sample, error) {
	img, err := src.Frame(ctx, at)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: frame at %s: %w", ErrSource, at, err)
	}
	if img == nil {
		return nil, fmt.Errorf("%w: frame at %s: no image", ErrSource, at)
	}
	return &sample{full: imaging.ToRGBA(img)}, nil
}

// sample is a sampled frame at full and analysis resolution.
type sample struct {
	full     *image.RGBA
	analysis *image.RGBA
	scale    float64
}

func (r *run) step(ctx context.Context, src FrameSource, index int, at time.Duration) error {
	f, err := fetch(ctx, src, at)
	if err != nil {
		return err
	}
	if f.full.Rect.Empty() {
		r.log.Warn("Skipping empty frame", "index", index, "timestamp", at)
		r.qualities = append(r.qualities, -1)
		return nil
	}
	f.analysis, f.scale = imaging.Downscale(f.full, r.e.opts.AnalysisMaxDim)

	gray := imaging.Grayscale(f.analysis)
	quality := imaging.Sharpness(gray)
	r.qualities = append(r.qualities, quality)

	page := r.e.detector.DetectGray(gray)
	if page != nil {
		page.FrameIndex = index
		page.Timestamp = at
		page.QualityScore = quality
	}
	motion := r.tracker.AddDetection(page, f.analysis, index, at)

	s := Step{
		Index:     index,
		Timestamp: at,
		Frame:     f.analysis,
		Page:      page,
		Motion:    motion,
		Quality:   quality,
		Distance:  -1,
	}
	r.decide(&s, f, gray)

	r.log.Debug("Analysed frame",
		"index", index,
		"timestamp", at,
		"motion", motion,
		"quality", quality,
		"decision", s.Decision)
	if r.e.opts.OnStep != nil {
		r.e.opts.OnStep(s)
	}
	return nil
}

// decide applies the capture state machine to one analysed frame.
func (r *run) decide(s *Step, f *sample, gray *imaging.GrayMap) {
	opts := r.e.opts
	if s.Page == nil {
		s.Decision = DecisionNoPage
		return
	}

	stable := r.tracker.StableDetection()
	s.Stable = stable != nil
	if stable == nil {
		s.Decision = DecisionUnstable
		return
	}
	if stable.Confidence < opts.AcceptConfidence || s.Quality < opts.MinQuality {
		s.Decision = DecisionRejected
		return
	}

	hist := content.Compute(gray, opts.HistogramBins)
	frame := merge.Frame{
		Image:      f.full,
		Corners:    stable.Corners.Scale(f.scale),
		Quality:    s.Quality,
		FrameIndex: s.Index,
		Timestamp:  s.Timestamp,
	}

	if r.active != nil {
		s.Distance = content.Distance(hist, r.active.histogram())
		switch {
		case s.Distance < opts.SameThreshold && s.Timestamp-r.active.end <= opts.SameWindow:
			r.active.add(frame, stable.Confidence, hist)
			s.Decision = DecisionAppended
			return
		case s.Distance < opts.DifferentThreshold:
			s.Decision = DecisionSkipped
			return
		}
		r.finalize()
		if opts.MaxPages > 0 && len(r.pages) >= opts.MaxPages {
			s.Decision = DecisionSkipped
			return
		}
	}

	if idx, d := content.NearestDistance(hist, r.emitted); idx >= 0 && d < opts.DuplicateThreshold {
		r.log.Debug("Duplicate of an emitted page", "page", idx, "distance", d, "timestamp", s.Timestamp)
		s.Decision = DecisionDuplicate
		return
	}

	r.active = newCandidate(frame, stable.Confidence, hist, r.retention())
	s.Decision = DecisionStarted
	r.log.Debug("Started page", "timestamp", s.Timestamp, "confidence", stable.Confidence)
}

// finalize turns the active candidate into an output page. Candidates with
// fewer than MinFrames frames are dropped.
func (r *run) finalize() {
	c := r.active
	r.active = nil
	if c == nil {
		return
	}
	if c.len() < r.e.opts.MinFrames {
		r.log.Debug("Dropping short page", "frames", c.len(), "start", c.start)
		return
	}

	hist := c.histogram()
	confidence := c.confidence
	frames := c.take()
	page := r.compose(frames, confidence)
	page.Index = len(r.pages)
	page.StartTime = c.start
	page.EndTime = c.end
	page.FrameCount = c.len()

	r.pages = append(r.pages, page)
	r.emitted = append(r.emitted, hist)
	r.log.Info("Captured page",
		"page", page.Index,
		"frames", page.FrameCount,
		"start", page.StartTime,
		"end", page.EndTime,
		"corrected", page.Corrected)
}

// retention is how many frames a candidate keeps while it accumulates: a
// single best frame without merging, otherwise as many as SelectFrames may
// pick at finalize.
func (r *run) retention() merge.SelectOptions {
	sel := r.e.opts.Selection
	sel.Target = 1
	if r.e.opts.Merge {
		sel.Target = max(merge.MaxTarget, r.e.opts.Selection.Target)
	}
	return sel
}

// compose merges or picks the page image and rectifies it. A page whose
// geometry cannot be rectified is kept uncorrected.
func (r *run) compose(frames []merge.Frame, confidence map[int]float64) PageResult {
	opts := r.e.opts
	ref := best(frames)
	page := PageResult{
		ID:           uuid.NewString(),
		Confidence:   confidence[ref.FrameIndex],
		QualityScore: ref.Quality,
	}

	img, corners := ref.Image, ref.Corners
	if opts.Merge && len(frames) > 1 {
		selected := merge.SelectFrames(frames, opts.Selection)
		merged, err := merge.Merge(selected, opts.Merging)
		if err != nil {
			r.log.Warn("Merge failed, using sharpest frame", "error", err)
		} else {
			img, corners = merged.Image, merged.Corners
			page.PoorRegions = merged.PoorRegions
			page.AlignmentSuccess = merged.AlignmentSuccess
		}
	}

	q := corners
	page.Corners = &q
	rectified, err := rectify.Rectify(img, corners, 0, 0)
	if err != nil {
		if !errors.Is(err, rectify.ErrDegenerate) {
			r.log.Error("Unexpected rectification failure", "error", err)
		}
		r.log.Warn("Page geometry degenerate, keeping uncorrected image", "corners", corners)
		page.Image = img
		return page
	}
	page.Image = rectified
	page.Corrected = true
	return page
}
