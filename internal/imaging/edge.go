package imaging

import (
	"image"
	"math"
)

// Sobel computes the gradient-magnitude map of a luminance frame.
//
// Parameters:
//   - gray: Luminance map, typically from Grayscale.
//
// Returns:
//   - *GrayMap: Same-size map where each interior pixel holds
//     sqrt(Gx² + Gy²) clamped to [0, 255]. The one-pixel border is zero.
//
// # Algorithm
//
// The standard 3x3 Sobel kernel pair is applied at every interior pixel:
//
//	Gx: -1 0 1    Gy: -1 -2 -1
//	    -2 0 2         0  0  0
//	    -1 0 1         1  2  1
//
// No smoothing is applied beforehand; the detector relies on the adaptive
// threshold and the minimum contour size to suppress noise.
//
// Maps narrower or shorter than 3 pixels have no interior and come back
// entirely zero.
func Sobel(gray *GrayMap) *GrayMap {
	w, h := gray.Width, gray.Height
	out := NewGrayMap(w, h)
	if w < 3 || h < 3 {
		return out
	}

	p := gray.Pix
	for y := 1; y < h-1; y++ {
		up := (y - 1) * w
		mid := y * w
		down := (y + 1) * w
		for x := 1; x < w-1; x++ {
			tl := int(p[up+x-1])
			tc := int(p[up+x])
			tr := int(p[up+x+1])
			ml := int(p[mid+x-1])
			mr := int(p[mid+x+1])
			bl := int(p[down+x-1])
			bc := int(p[down+x])
			br := int(p[down+x+1])

			gx := (tr + 2*mr + br) - (tl + 2*ml + bl)
			gy := (bl + 2*bc + br) - (tl + 2*tc + tr)

			mag := math.Sqrt(float64(gx*gx + gy*gy))
			if mag > 255 {
				mag = 255
			}
			out.Pix[mid+x] = uint8(mag)
		}
	}
	return out
}

// EdgeMap converts a frame to luminance and returns its Sobel magnitude map.
func EdgeMap(img *image.RGBA) *GrayMap {
	return Sobel(Grayscale(img))
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
