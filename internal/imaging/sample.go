package imaging

import (
	"image"
	"image/color"
	"math"
)

// White is the fill colour for samples that fall outside a frame.
var White = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// SampleBilinear interpolates img at the fractional position (x, y).
//
// A coordinate is in bounds when it lies within half a pixel of the frame, i.e.
// x in (-0.5, width-0.5) and likewise for y; positions in that margin are
// clamped to the edge pixels. Out-of-bounds positions return (White, false).
func SampleBilinear(img *image.RGBA, x, y float64) (color.RGBA, bool) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if math.IsNaN(x) || math.IsNaN(y) ||
		x <= -0.5 || y <= -0.5 || x >= float64(w)-0.5 || y >= float64(h)-0.5 {
		return White, false
	}

	x = math.Max(0, math.Min(x, float64(w-1)))
	y = math.Max(0, math.Min(y, float64(h-1)))

	x0 := int(x)
	y0 := int(y)
	x1 := clamp(x0+1, 0, w-1)
	y1 := clamp(y0+1, 0, h-1)
	fx := x - float64(x0)
	fy := y - float64(y0)

	i00 := y0*img.Stride + 4*x0
	i10 := y0*img.Stride + 4*x1
	i01 := y1*img.Stride + 4*x0
	i11 := y1*img.Stride + 4*x1

	var out [4]uint8
	for c := 0; c < 4; c++ {
		top := float64(img.Pix[i00+c])*(1-fx) + float64(img.Pix[i10+c])*fx
		bottom := float64(img.Pix[i01+c])*(1-fx) + float64(img.Pix[i11+c])*fx
		v := top*(1-fy) + bottom*fy + 0.5
		if v > 255 {
			v = 255
		}
		out[c] = uint8(v)
	}
	return color.RGBA{R: out[0], G: out[1], B: out[2], A: out[3]}, true
}

// SetRGBA writes c at (x, y) of a zero-origin frame without bounds checks.
func SetRGBA(img *image.RGBA, x, y int, c color.RGBA) {
	i := y*img.Stride + 4*x
	img.Pix[i] = c.R
	img.Pix[i+1] = c.G
	img.Pix[i+2] = c.B
	img.Pix[i+3] = c.A
}
