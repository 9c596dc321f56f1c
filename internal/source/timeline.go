package source

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/anthonynsimon/bild/noise"

	"github.com/ironsheep/pagescan/internal/geometry"
	"github.com/ironsheep/pagescan/internal/imaging"
	"github.com/ironsheep/pagescan/internal/rectify"
)

// Segment is a stretch of a Timeline. Render is called with the time relative
// to the start of the segment and must return a new image on every call.
type Segment struct {
	Length time.Duration
	Render func(at time.Duration) image.Image
}

// Timeline is an in-memory video built from consecutive segments. It is used
// to script scenes for tests and demos.
type Timeline struct {
	segments []Segment
	total    time.Duration
}

// NewTimeline joins segments into a timeline.
func NewTimeline(segments ...Segment) *Timeline {
	t := &Timeline{segments: segments}
	for _, s := range segments {
		t.total += s.Length
	}
	return t
}

// Duration is the summed segment length.
func (t *Timeline) Duration() time.Duration {
	return t.total
}

// Frame renders the segment covering at.
func (t *Timeline) Frame(ctx context.Context, at time.Duration) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	offset := at
	for _, s := range t.segments {
		if offset < s.Length {
			return s.Render(offset), nil
		}
		offset -= s.Length
	}
	return nil, fmt.Errorf("timestamp %s outside timeline of %s", at, t.total)
}

// Close is a no-op.
func (t *Timeline) Close() error {
	return nil
}

// Still holds img for length. Each frame is a copy.
func Still(img *image.RGBA, length time.Duration) Segment {
	return Segment{
		Length: length,
		Render: func(time.Duration) image.Image {
			return imaging.CloneRGBA(img)
		},
	}
}

// Noise fills length with uniform colour noise, a stand-in for a page being
// turned. Every frame differs from the previous one.
func Noise(width, height int, length time.Duration) Segment {
	return Segment{
		Length: length,
		Render: func(time.Duration) image.Image {
			return noise.Generate(width, height, &noise.Options{NoiseFn: noise.Uniform})
		},
	}
}

// Page renders a flat page of the given colour, warped onto corners over a
// background, as a camera would see a sheet lying on a table.
func Page(width, height int, corners geometry.Quad, page, background color.RGBA) (*image.RGBA, error) {
	w, h := rectify.TargetSize(corners)
	sheet := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(sheet.Pix); i += 4 {
		sheet.Pix[i], sheet.Pix[i+1], sheet.Pix[i+2], sheet.Pix[i+3] = page.R, page.G, page.B, 255
	}
	return rectify.Warp(sheet, corners, width, height, background)
}
