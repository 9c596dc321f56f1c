package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/ironsheep/pagescan/internal/content"
	"github.com/ironsheep/pagescan/internal/detection"
	"github.com/ironsheep/pagescan/internal/extract"
	"github.com/ironsheep/pagescan/internal/geometry"
	"github.com/ironsheep/pagescan/internal/imaging"
	"github.com/ironsheep/pagescan/internal/output"
	"github.com/ironsheep/pagescan/internal/rectify"
	"github.com/ironsheep/pagescan/internal/source"
	"github.com/ironsheep/pagescan/internal/tracking"
)

// decode unmarshals tool arguments, treating empty input as an empty object.
func decode(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// detect runs page detection on an analysis-size copy of img and returns the
// page in img coordinates along with the sharpness of that copy. Sharpness is
// measured at analysis resolution whether or not a page is found.
func (s *Server) detect(img *image.RGBA) (*detection.Page, float64) {
	small, scale := imaging.Downscale(img, s.opts.AnalysisMaxDim)
	gray := imaging.Grayscale(small)
	sharpness := imaging.Sharpness(gray)
	page := s.detector.DetectGray(gray)
	if page == nil {
		return nil, sharpness
	}
	page.Corners = page.Corners.Scale(scale)
	page.Area *= scale * scale
	page.QualityScore = sharpness
	return page, sharpness
}

// load decodes path through the image cache. The frame stays cached for the
// rest of the call only; release evicts it.
func (s *Server) load(path string) (img *image.RGBA, release func(), err error) {
	img, err = s.cache.Load(path)
	if err != nil {
		return nil, nil, err
	}
	return img, func() { s.cache.Evict(path) }, nil
}

// === Page Detection ===

type pageDetectArgs struct {
	Path    string `json:"path"`
	Overlay bool   `json:"overlay"`
}

// PageDetectResult is the result of page_detect.
type PageDetectResult struct {
	Path       string         `json:"path"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	Found      bool           `json:"found"`
	Corners    *geometry.Quad `json:"corners,omitempty"`
	Confidence float64        `json:"confidence"`
	AreaRatio  float64        `json:"area_ratio"`
	Skew       float64        `json:"skew_degrees"`
	WithinSkew bool           `json:"within_skew"`
	Sharpness  float64        `json:"sharpness"`
	Overlay    string         `json:"overlay_png_base64,omitempty"`
}

func (s *Server) handlePageDetect(_ context.Context, args json.RawMessage) (interface{}, error) {
	var a pageDetectArgs
	if err := decode(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	img, release, err := s.load(a.Path)
	if err != nil {
		return nil, err
	}
	defer release()

	w, h := img.Rect.Dx(), img.Rect.Dy()
	result := &PageDetectResult{Path: a.Path, Width: w, Height: h}

	page, sharpness := s.detect(img)
	result.Sharpness = sharpness
	if page == nil {
		return result, nil
	}

	corners := page.Corners
	result.Found = true
	result.Corners = &corners
	result.Confidence = page.Confidence
	result.AreaRatio = page.Area / float64(w*h)
	result.Skew = page.Skew
	result.WithinSkew = page.WithinSkew

	if a.Overlay {
		label := fmt.Sprintf("%.2f", page.Confidence)
		encoded, err := imaging.EncodePNGBase64(imaging.DrawQuad(img, corners, imaging.OutlineColor(0), label))
		if err != nil {
			return nil, err
		}
		result.Overlay = encoded
	}
	return result, nil
}

// === Rectification ===

type pageRectifyArgs struct {
	Path       string    `json:"path"`
	Corners    []float64 `json:"corners"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	OutputPath string    `json:"output_path"`
}

// PageRectifyResult is the result of page_rectify.
type PageRectifyResult struct {
	Corners    geometry.Quad `json:"corners"`
	Detected   bool          `json:"detected"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	OutputPath string        `json:"output_path,omitempty"`
	Image      string        `json:"image_png_base64,omitempty"`
}

func (s *Server) handlePageRectify(_ context.Context, args json.RawMessage) (interface{}, error) {
	var a pageRectifyArgs
	if err := decode(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	img, release, err := s.load(a.Path)
	if err != nil {
		return nil, err
	}
	defer release()

	result := &PageRectifyResult{}
	switch len(a.Corners) {
	case 0:
		page, _ := s.detect(img)
		if page == nil {
			return nil, errors.New("no page detected; pass corners explicitly")
		}
		result.Corners = page.Corners
		result.Detected = true
	case 8:
		for i := range result.Corners {
			result.Corners[i] = geometry.Pt(a.Corners[2*i], a.Corners[2*i+1])
		}
	default:
		return nil, fmt.Errorf("corners must hold 8 numbers, got %d", len(a.Corners))
	}

	page, err := rectify.Rectify(img, result.Corners, a.Width, a.Height)
	if err != nil {
		return nil, err
	}
	result.Width, result.Height = page.Rect.Dx(), page.Rect.Dy()

	if a.OutputPath != "" {
		if err := writeImage(a.OutputPath, page); err != nil {
			return nil, err
		}
		result.OutputPath = a.OutputPath
		return result, nil
	}

	result.Image, err = imaging.EncodePNGBase64(page)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func writeImage(path string, img image.Image) error {
	format, err := imaging.ParseFormat(filepath.Ext(path))
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := imaging.Encode(f, img, format, 0); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// === Frame Comparison ===

type framesCompareArgs struct {
	PathA string `json:"path_a"`
	PathB string `json:"path_b"`
}

// FramesCompareResult is the result of frames_compare.
type FramesCompareResult struct {
	Motion     float64 `json:"motion"`
	Moving     bool    `json:"moving"`
	Distance   float64 `json:"content_distance"`
	Verdict    string  `json:"verdict"`
	SharpnessA float64 `json:"sharpness_a"`
	SharpnessB float64 `json:"sharpness_b"`
}

// Content verdicts of frames_compare.
const (
	VerdictSame      = "same_page"
	VerdictDifferent = "different_page"
	VerdictAmbiguous = "ambiguous"
)

func (s *Server) handleFramesCompare(_ context.Context, args json.RawMessage) (interface{}, error) {
	var a framesCompareArgs
	if err := decode(args, &a); err != nil {
		return nil, err
	}
	if a.PathA == "" || a.PathB == "" {
		return nil, errors.New("path_a and path_b are required")
	}

	imgA, releaseA, err := s.load(a.PathA)
	if err != nil {
		return nil, err
	}
	defer releaseA()
	imgB, releaseB, err := s.load(a.PathB)
	if err != nil {
		return nil, err
	}
	defer releaseB()

	smallA, _ := imaging.Downscale(imgA, s.opts.AnalysisMaxDim)
	smallB, _ := imaging.Downscale(imgB, s.opts.AnalysisMaxDim)
	grayA, grayB := imaging.Grayscale(smallA), imaging.Grayscale(smallB)

	result := &FramesCompareResult{
		Motion:     tracking.Motion(smallB, smallA),
		Distance:   content.Distance(content.Compute(grayA, s.opts.HistogramBins), content.Compute(grayB, s.opts.HistogramBins)),
		SharpnessA: imaging.Sharpness(grayA),
		SharpnessB: imaging.Sharpness(grayB),
	}
	result.Moving = result.Motion >= s.opts.Tracking.MotionThreshold
	switch {
	case result.Distance < s.opts.SameThreshold:
		result.Verdict = VerdictSame
	case result.Distance >= s.opts.DifferentThreshold:
		result.Verdict = VerdictDifferent
	default:
		result.Verdict = VerdictAmbiguous
	}
	return result, nil
}

// === Extraction ===

type pagesExtractArgs struct {
	Input      string   `json:"input"`
	Output     string   `json:"output"`
	FPS        float64  `json:"fps"`
	IntervalMS *float64 `json:"interval_ms"`
	MaxPages   *int     `json:"max_pages"`
	Merge      *bool    `json:"merge"`
	Format     string   `json:"format"`
}

// PagesExtractResult is the result of pages_extract.
type PagesExtractResult struct {
	Output   string           `json:"output"`
	Manifest *output.Manifest `json:"manifest"`
}

func (s *Server) handlePagesExtract(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pagesExtractArgs
	if err := decode(args, &a); err != nil {
		return nil, err
	}
	if a.Input == "" || a.Output == "" {
		return nil, errors.New("input and output are required")
	}

	opts := s.opts
	if a.IntervalMS != nil {
		opts.Interval = time.Duration(*a.IntervalMS * float64(time.Millisecond))
	}
	if a.MaxPages != nil {
		opts.MaxPages = *a.MaxPages
	}
	if a.Merge != nil {
		opts.Merge = *a.Merge
	}

	src, err := source.Open(a.Input, a.FPS, s.logger)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	sink, err := output.NewDirectory(a.Output, a.Format, 0, s.logger)
	if err != nil {
		return nil, err
	}
	ext, err := extract.New(opts, s.logger)
	if err != nil {
		return nil, err
	}
	if _, err := ext.Run(ctx, src, sink); err != nil {
		return nil, err
	}

	m, err := output.ReadManifest(a.Output)
	if err != nil {
		return nil, err
	}
	return &PagesExtractResult{Output: a.Output, Manifest: m}, nil
}
