package merge

import (
	"fmt"
	"image"

	"github.com/ironsheep/pagescan/internal/geometry"
	"github.com/ironsheep/pagescan/internal/imaging"
)

// triangle returns the top-left, top-right and bottom-left corners, which fix
// an affine transform.
func triangle(q geometry.Quad) [3]geometry.Point {
	return [3]geometry.Point{q[geometry.TopLeft], q[geometry.TopRight], q[geometry.BottomLeft]}
}

// Align warps frame so that its page corners land on the reference corners.
//
// The affine transform is solved from three corner correspondences (top-left,
// top-right, bottom-left) in the reference -> frame direction, so each output
// pixel samples frame directly. Output pixels that map outside frame are taken
// from fill, which must have the same size as the output.
//
// Returns an error wrapping geometry.ErrSingular when the reference corners are
// collinear.
func Align(frame *image.RGBA, corners, reference geometry.Quad, fill *image.RGBA) (*image.RGBA, error) {
	t, err := geometry.AffineFromTriangles(triangle(reference), triangle(corners))
	if err != nil {
		return nil, fmt.Errorf("align: %w", err)
	}

	w, h := fill.Rect.Dx(), fill.Rect.Dy()
	out := imaging.CloneRGBA(fill)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := t.Apply(geometry.Pt(float64(x), float64(y)))
			if c, ok := imaging.SampleBilinear(frame, p.X, p.Y); ok {
				imaging.SetRGBA(out, x, y, c)
			}
		}
	}
	return out, nil
}
