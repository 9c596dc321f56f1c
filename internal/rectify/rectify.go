// Package rectify maps a detected page quadrilateral onto an upright
// rectangle with a projective transform.
package rectify

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/ironsheep/pagescan/internal/geometry"
	"github.com/ironsheep/pagescan/internal/imaging"
)

// ErrDegenerate reports page geometry that cannot be rectified: a singular
// homography or an empty target rectangle. Callers fall back to the
// uncorrected frame.
var ErrDegenerate = errors.New("rectify: degenerate page geometry")

// TargetSize derives the output size from the corner geometry: the longer of
// the top and bottom edges by the longer of the left and right edges, rounded.
// This keeps the page's apparent aspect ratio instead of forcing a paper size.
func TargetSize(corners geometry.Quad) (width, height int) {
	top, right, bottom, left := corners.Edges()
	return int(math.Round(math.Max(top, bottom))), int(math.Round(math.Max(left, right)))
}

// Rectify resamples the region of frame inside corners into an upright
// width x height image.
//
// Parameters:
//   - frame: Source frame (zero-origin RGBA).
//   - corners: Page corners, top-left first, clockwise.
//   - width, height: Output size. Zero for either selects TargetSize.
//
// Returns:
//   - *image.RGBA: The rectified page. Destination pixels whose source
//     position falls outside frame are white.
//   - error: wraps ErrDegenerate when the geometry is singular or the output
//     would be empty.
//
// # Algorithm
//
// The homography is solved directly in the destination -> source direction
// (destination rectangle corners onto the source corners), so every output
// pixel maps to a source position without inverting a matrix. Each source
// position is sampled bilinearly.
func Rectify(frame *image.RGBA, corners geometry.Quad, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		width, height = TargetSize(corners)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: target size %dx%d", ErrDegenerate, width, height)
	}

	dst := rectQuad(width, height)
	h, err := geometry.HomographyFromQuads(dst, corners)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDegenerate, err)
	}

	return resample(frame, h, width, height, imaging.White), nil
}

// Warp is the forward operation: it renders src as the quadrilateral corners
// inside a width x height canvas filled with bg. Rectify(Warp(src, q, ...), q,
// srcW, srcH) recovers src up to interpolation error.
func Warp(src *image.RGBA, corners geometry.Quad, width, height int, bg color.RGBA) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: canvas size %dx%d", ErrDegenerate, width, height)
	}

	h, err := geometry.HomographyFromQuads(corners, rectQuad(src.Rect.Dx(), src.Rect.Dy()))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDegenerate, err)
	}

	return resample(src, h, width, height, bg), nil
}

// rectQuad returns the corners of a width x height rectangle at the origin.
func rectQuad(width, height int) geometry.Quad {
	w, h := float64(width), float64(height)
	return geometry.Quad{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}}
}

// resample fills a width x height image by mapping every output pixel through
// h into src.
func resample(src *image.RGBA, h geometry.Homography, width, height int, fill color.RGBA) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	for v := 0; v < height; v++ {
		for u := 0; u < width; u++ {
			c := fill
			if p, ok := h.Apply(geometry.Pt(float64(u), float64(v))); ok {
				if s, in := imaging.SampleBilinear(src, p.X, p.Y); in {
					c = s
				}
			}
			imaging.SetRGBA(out, u, v, c)
		}
	}
	return out
}
