// Package merge composites a burst of frames of the same page into one image,
// taking every region from whichever frame shows it sharpest.
package merge

import (
	"errors"
	"image"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/pagescan/internal/geometry"
	"github.com/ironsheep/pagescan/internal/imaging"
)

// ErrNoFrames is returned by Merge for an empty burst.
var ErrNoFrames = errors.New("no frames to merge")

// Frame is one member of a burst.
type Frame struct {
	Image      *image.RGBA
	Corners    geometry.Quad
	Quality    float64
	FrameIndex int
	Timestamp  time.Duration
}

// Options configures Merge.
type Options struct {
	// GridSize is the number of cells per side. Zero selects AutoGridSize.
	GridSize int `json:"grid_size"`

	// Align warps every frame onto the sharpest frame's page corners before
	// scoring.
	Align bool `json:"align"`

	// PoorRegionRatio is the fraction of the mean cell quality below which a
	// cell counts as poor.
	PoorRegionRatio float64 `json:"poor_region_ratio"`

	// SeamWidth is the width in pixels of the blend band at cell boundaries.
	SeamWidth int `json:"seam_width"`
}

// DefaultOptions returns the merge defaults.
func DefaultOptions() Options {
	return Options{
		Align:           true,
		PoorRegionRatio: 0.2,
		SeamWidth:       3,
	}
}

// Result is a merged page image with diagnostics.
type Result struct {
	Image *image.RGBA

	// Corners are the page corners of the reference frame; after alignment
	// they describe the page in the merged image too.
	Corners geometry.Quad

	// Reference is the index of the sharpest input frame.
	Reference int

	GridSize int

	// PoorRegions counts cells whose best quality is under PoorRegionRatio of
	// the mean. Informational only.
	PoorRegions int

	// AlignmentSuccess is true when alignment was requested and every
	// non-reference frame was aligned.
	AlignmentSuccess bool

	// Sources holds, per [row][col], the input index each cell was copied from.
	Sources [][]int

	// Skipped counts frames dropped because their size differed from the
	// reference.
	Skipped int
}

// Merge composites frames into a single image.
//
// # Algorithm
//
//  1. The frame with the highest Quality is the reference.
//  2. With Options.Align, every other frame is affinely warped onto the
//     reference's page corners.
//  3. Each frame is scored per grid cell with RegionQuality.
//  4. Every cell is copied from the frame with the best score there.
//  5. A SeamWidth band across every internal cell boundary is smoothed with a
//     3-tap linear blend.
//
// A single frame is returned unchanged with AlignmentSuccess false. An empty
// burst returns ErrNoFrames.
func Merge(frames []Frame, opts Options) (*Result, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}

	ref := 0
	for i, f := range frames {
		if f.Quality > frames[ref].Quality {
			ref = i
		}
	}
	reference := frames[ref]
	w, h := reference.Image.Rect.Dx(), reference.Image.Rect.Dy()

	grid := opts.GridSize
	if grid <= 0 {
		grid = AutoGridSize(w, h)
	}

	if len(frames) == 1 {
		return &Result{
			Image:     reference.Image,
			Corners:   reference.Corners,
			Reference: ref,
			GridSize:  grid,
			Sources:   uniformSources(grid, ref),
		}, nil
	}

	// Candidate images in the reference geometry, keyed by input index.
	images := make(map[int]*image.RGBA, len(frames))
	images[ref] = reference.Image
	aligned := opts.Align
	skipped := 0
	for i, f := range frames {
		if i == ref {
			continue
		}
		if f.Image.Rect.Dx() != w || f.Image.Rect.Dy() != h {
			skipped++
			continue
		}
		if !opts.Align {
			images[i] = f.Image
			continue
		}
		warped, err := Align(f.Image, f.Corners, reference.Corners, reference.Image)
		if err != nil {
			aligned = false
			images[i] = f.Image
			continue
		}
		images[i] = warped
	}

	scores := make(map[int][][]float64, len(images))
	for i, img := range images {
		scores[i] = RegionQuality(imaging.Grayscale(img), grid)
	}

	out := imaging.CloneRGBA(reference.Image)
	sources := make([][]int, grid)
	best := make([]float64, 0, grid*grid)
	for row := 0; row < grid; row++ {
		sources[row] = make([]int, grid)
		for col := 0; col < grid; col++ {
			pick := ref
			for i := range frames {
				s, ok := scores[i]
				if !ok {
					continue
				}
				if s[row][col] > scores[pick][row][col] {
					pick = i
				}
			}
			sources[row][col] = pick
			best = append(best, scores[pick][row][col])
			if pick != ref {
				copyCell(out, images[pick], cellRect(w, h, grid, row, col))
			}
		}
	}

	poor := 0
	if mean := stat.Mean(best, nil); mean > 0 {
		limit := opts.PoorRegionRatio * mean
		for _, q := range best {
			if q < limit {
				poor++
			}
		}
	}

	blendSeams(out, grid, opts.SeamWidth)

	return &Result{
		Image:            out,
		Corners:          reference.Corners,
		Reference:        ref,
		GridSize:         grid,
		PoorRegions:      poor,
		AlignmentSuccess: opts.Align && aligned && skipped == 0,
		Sources:          sources,
		Skipped:          skipped,
	}, nil
}

func uniformSources(grid, index int) [][]int {
	sources := make([][]int, grid)
	for row := range sources {
		sources[row] = make([]int, grid)
		for col := range sources[row] {
			sources[row][col] = index
		}
	}
	return sources
}

// copyCell copies the pixels of r from src into dst. Both frames share the
// same zero-origin layout.
func copyCell(dst, src *image.RGBA, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		start := y*dst.Stride + 4*r.Min.X
		end := y*dst.Stride + 4*r.Max.X
		copy(dst.Pix[start:end], src.Pix[start:end])
	}
}
