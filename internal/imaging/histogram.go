package imaging

import (
	"image"
	"math"
)

// LevelHistogram counts the luminance levels of gray inside r.
//
// The region is intersected with the map bounds; an empty intersection yields
// an all-zero histogram.
func LevelHistogram(gray *GrayMap, r image.Rectangle) [256]int {
	var hist [256]int
	r = r.Intersect(gray.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := gray.Pix[y*gray.Width : (y+1)*gray.Width]
		for x := r.Min.X; x < r.Max.X; x++ {
			hist[row[x]]++
		}
	}
	return hist
}

// CentralRegion returns the rectangle covering the central fraction of a
// width x height frame. A fraction of 0.8 trims 10% from every side.
func CentralRegion(width, height int, fraction float64) image.Rectangle {
	mx := int(math.Round(float64(width) * (1 - fraction) / 2))
	my := int(math.Round(float64(height) * (1 - fraction) / 2))
	return image.Rect(mx, my, width-mx, height-my)
}
