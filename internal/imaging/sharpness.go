package imaging

import (
	"image"

	"gonum.org/v1/gonum/stat"
)

// LaplacianVariance scores the sharpness of gray inside r.
//
// The 4-neighbour Laplacian (0 1 0 / 1 -4 1 / 0 1 0) is evaluated at every
// pixel of r that has all four neighbours inside the map, and the variance of
// the responses is returned. Blurred regions have a flat Laplacian and score
// near zero; crisp text scores in the hundreds or thousands.
//
// Returns 0 when fewer than two pixels qualify.
func LaplacianVariance(gray *GrayMap, r image.Rectangle) float64 {
	r = r.Intersect(image.Rect(1, 1, gray.Width-1, gray.Height-1))
	if r.Empty() {
		return 0
	}

	w := gray.Width
	p := gray.Pix
	responses := make([]float64, 0, r.Dx()*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			i := y*w + x
			lap := int(p[i-w]) + int(p[i+w]) + int(p[i-1]) + int(p[i+1]) - 4*int(p[i])
			responses = append(responses, float64(lap))
		}
	}
	if len(responses) < 2 {
		return 0
	}

	_, variance := stat.MeanVariance(responses, nil)
	return variance
}

// Sharpness is LaplacianVariance over the whole frame.
func Sharpness(gray *GrayMap) float64 {
	return LaplacianVariance(gray, gray.Bounds())
}
