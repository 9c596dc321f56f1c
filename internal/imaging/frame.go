package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/clone"
)

// ToRGBA returns img as a zero-origin *image.RGBA with a tight stride.
//
// If img already has that layout it is returned as-is without copying, so the
// caller must not modify the result when it does not own img. Any other image
// type (YCbCr from JPEG, NRGBA from PNG, sub-images) is copied.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		if rgba.Rect.Min == (image.Point{}) && rgba.Stride == 4*rgba.Rect.Dx() {
			return rgba
		}
	}

	out := clone.AsRGBA(img)
	// A freshly allocated buffer starts at Rect.Min, so shifting the rectangle
	// to the origin keeps Pix indexing valid.
	out.Rect = image.Rect(0, 0, out.Rect.Dx(), out.Rect.Dy())
	return out
}

// CloneRGBA returns a deep copy of img.
func CloneRGBA(img *image.RGBA) *image.RGBA {
	out := &image.RGBA{
		Pix:    make([]uint8, len(img.Pix)),
		Stride: img.Stride,
		Rect:   img.Rect,
	}
	copy(out.Pix, img.Pix)
	return out
}

// NewWhite returns a width x height opaque white RGBA image.
func NewWhite(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

// GrayMap is an 8-bit single-channel raster with zero origin.
//
// It holds both luminance frames and gradient-magnitude maps.
type GrayMap struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewGrayMap allocates a zeroed width x height map.
func NewGrayMap(width, height int) *GrayMap {
	return &GrayMap{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// At returns the value at (x, y). The coordinates must be in range.
func (g *GrayMap) At(x, y int) uint8 {
	return g.Pix[y*g.Width+x]
}

// Bounds returns the map's rectangle.
func (g *GrayMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.Width, g.Height)
}

// Image wraps the map as an *image.Gray sharing the same pixel buffer.
func (g *GrayMap) Image() *image.Gray {
	return &image.Gray{
		Pix:    g.Pix,
		Stride: g.Width,
		Rect:   g.Bounds(),
	}
}

// Luminance returns the BT.601 luma of an 8-bit RGB triple.
func Luminance(r, g, b uint8) uint8 {
	l := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b) + 0.5
	if l > 255 {
		return 255
	}
	return uint8(l)
}

// Grayscale converts a frame to its luminance map.
func Grayscale(img *image.RGBA) *GrayMap {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	gray := NewGrayMap(w, h)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+4*w]
		out := gray.Pix[y*w : (y+1)*w]
		for x := 0; x < w; x++ {
			i := 4 * x
			out[x] = Luminance(row[i], row[i+1], row[i+2])
		}
	}
	return gray
}
