package merge

import (
	"image"
	"math"

	"github.com/ironsheep/pagescan/internal/imaging"
)

// Centre weighting applied to region quality.
const (
	centerBoost = 0.2
	centerSigma = 0.25
)

// AutoGridSize picks the grid resolution from the frame's pixel count:
// 6 below one megapixel, 8 below four, 10 otherwise.
func AutoGridSize(width, height int) int {
	switch pixels := width * height; {
	case pixels < 1_000_000:
		return 6
	case pixels < 4_000_000:
		return 8
	default:
		return 10
	}
}

// cellRect returns the rectangle of grid cell (row, col). Cells tile the frame
// exactly; the last row and column absorb any remainder.
func cellRect(width, height, gridSize, row, col int) image.Rectangle {
	return image.Rect(
		col*width/gridSize, row*height/gridSize,
		(col+1)*width/gridSize, (row+1)*height/gridSize,
	)
}

// RegionQuality scores every cell of a gridSize x gridSize partition of gray.
//
// Each score is the Laplacian variance of the cell, multiplied by a centre
// boost of 1 + 0.2*exp(-(dx²+dy²)/(2*0.25²)) where dx, dy are the cell
// centre's offsets from the frame centre as fractions of the frame size.
// Documents are usually held near the middle of the shot, so central cells get
// up to 20% extra weight.
//
// The result is indexed [row][col].
func RegionQuality(gray *imaging.GrayMap, gridSize int) [][]float64 {
	if gridSize <= 0 {
		gridSize = AutoGridSize(gray.Width, gray.Height)
	}

	scores := make([][]float64, gridSize)
	for row := 0; row < gridSize; row++ {
		scores[row] = make([]float64, gridSize)
		for col := 0; col < gridSize; col++ {
			r := cellRect(gray.Width, gray.Height, gridSize, row, col)
			cx := (float64(r.Min.X+r.Max.X)/2)/float64(gray.Width) - 0.5
			cy := (float64(r.Min.Y+r.Max.Y)/2)/float64(gray.Height) - 0.5
			boost := 1 + centerBoost*math.Exp(-(cx*cx+cy*cy)/(2*centerSigma*centerSigma))
			scores[row][col] = imaging.LaplacianVariance(gray, r) * boost
		}
	}
	return scores
}
