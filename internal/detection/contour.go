package detection

import (
	"image"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/pagescan/internal/geometry"
	"github.com/ironsheep/pagescan/internal/imaging"
)

// MinContourSize is the smallest connected edge region, in pixels, kept as a
// candidate contour.
const MinContourSize = 100

// Adaptive threshold bounds.
const (
	thresholdPercentile = 0.85
	thresholdScale      = 0.3
	thresholdMin        = 30
	thresholdMax        = 80
)

// AdaptiveThreshold derives the edge-magnitude threshold from the luminance
// distribution of the original frame (not the edge map).
//
// The luminance level at the 85th percentile of the cumulative histogram is
// scaled by 0.3 and clamped to [30, 80]. Bright scenes with a high-contrast
// page push the threshold up; dim, low-contrast scenes pull it down.
func AdaptiveThreshold(gray *imaging.GrayMap) uint8 {
	hist := imaging.LevelHistogram(gray, gray.Bounds())

	levels := make([]float64, 256)
	weights := make([]float64, 256)
	var total float64
	for i, n := range hist {
		levels[i] = float64(i)
		weights[i] = float64(n)
		total += float64(n)
	}
	if total == 0 {
		return thresholdMin
	}

	level := stat.Quantile(thresholdPercentile, stat.Empirical, levels, weights)
	t := thresholdScale * level
	if t < thresholdMin {
		t = thresholdMin
	}
	if t > thresholdMax {
		t = thresholdMax
	}
	return uint8(t)
}

// FindContours groups edge pixels whose magnitude exceeds threshold into
// 8-connected regions and returns every region with at least minSize pixels.
//
// Each contour is the unordered set of its pixel coordinates; it is not a
// boundary walk. An empty result is valid and means nothing in the frame has
// a strong enough outline.
func FindContours(edges *imaging.GrayMap, threshold uint8, minSize int) [][]geometry.Point {
	width, height := edges.Width, edges.Height
	visited := make([]bool, width*height)

	contours := make([][]geometry.Point, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			if edges.Pix[i] > threshold && !visited[i] {
				contour := make([]geometry.Point, 0, minSize)
				floodFill(edges, visited, threshold, x, y, &contour)
				if len(contour) >= minSize {
					contours = append(contours, contour)
				}
			}
		}
	}
	return contours
}

// floodFill collects the 8-connected region containing (startX, startY) using
// an explicit stack, so region size never grows the goroutine stack.
func floodFill(edges *imaging.GrayMap, visited []bool, threshold uint8, startX, startY int, contour *[]geometry.Point) {
	width, height := edges.Width, edges.Height
	stack := []image.Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		i := p.Y*width + p.X
		if visited[i] || edges.Pix[i] <= threshold {
			continue
		}

		visited[i] = true
		*contour = append(*contour, geometry.Pt(float64(p.X), float64(p.Y)))

		// 8-connected neighbors
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, image.Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
}
