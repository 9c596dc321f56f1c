// Package content compares what two frames show using coarse luminance
// histograms, so the pipeline can tell a held page from the next page or from
// a page it has already captured.
package content

import (
	"github.com/ironsheep/pagescan/internal/imaging"
)

// Bins is the default histogram resolution.
const Bins = 32

// CentralFraction is the share of each frame dimension sampled; the outer 10%
// on every side is ignored to reduce the influence of background clutter.
const CentralFraction = 0.8

// Histogram is a normalised luminance distribution. Values sum to 1 unless the
// sampled region was empty, in which case every bin is 0.
type Histogram []float64

// Compute returns the bins-bucket luminance histogram of the central 80% x 80%
// region of gray. Levels 0..255 are split into equal-width buckets.
func Compute(gray *imaging.GrayMap, bins int) Histogram {
	if bins <= 0 {
		bins = Bins
	}

	region := imaging.CentralRegion(gray.Width, gray.Height, CentralFraction)
	levels := imaging.LevelHistogram(gray, region)

	h := make(Histogram, bins)
	var total float64
	for level, n := range levels {
		h[level*bins/256] += float64(n)
		total += float64(n)
	}
	if total == 0 {
		return h
	}
	for i := range h {
		h[i] /= total
	}
	return h
}

// Distance is the chi-square style distance sum((a-b)^2 / (a+b)) over the bins
// where a+b is non-zero. Identical histograms are 0 apart; histograms with
// disjoint support are 2 apart. Histograms of different lengths are compared
// over their common prefix.
func Distance(a, b Histogram) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var d float64
	for i := 0; i < n; i++ {
		sum := a[i] + b[i]
		if sum == 0 {
			continue
		}
		diff := a[i] - b[i]
		d += diff * diff / sum
	}
	return d
}

// Average is a running mean of histograms. The zero value is empty and ready
// to use.
type Average struct {
	sum   Histogram
	count int
}

// Add folds h into the mean.
func (a *Average) Add(h Histogram) {
	if a.sum == nil {
		a.sum = make(Histogram, len(h))
	}
	for i := 0; i < len(h) && i < len(a.sum); i++ {
		a.sum[i] += h[i]
	}
	a.count++
}

// Count returns how many histograms have been added.
func (a *Average) Count() int {
	return a.count
}

// Mean returns the current mean, or nil when nothing has been added.
func (a *Average) Mean() Histogram {
	if a.count == 0 {
		return nil
	}
	out := make(Histogram, len(a.sum))
	for i, v := range a.sum {
		out[i] = v / float64(a.count)
	}
	return out
}

// NearestDistance returns the smallest distance from h to any of the given
// histograms, and its index. The index is -1 for an empty set.
func NearestDistance(h Histogram, set []Histogram) (index int, distance float64) {
	index = -1
	for i, other := range set {
		d := Distance(h, other)
		if index < 0 || d < distance {
			index = i
			distance = d
		}
	}
	return index, distance
}
