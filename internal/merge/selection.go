package merge

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// MaxTarget is the most frames SelectFrames keeps when it picks the target
// itself.
const MaxTarget = 6

// Frame selection parameters.
const (
	baseTarget = 4
	minTarget  = 3

	highVariation = 0.35
	lowVariation  = 0.1
)

// SelectOptions configures SelectFrames.
type SelectOptions struct {
	// Target is the number of frames to keep. Zero selects TargetCount.
	Target int `json:"target"`

	// MinSpacing is the minimum time between any two selected frames.
	MinSpacing time.Duration `json:"min_spacing"`
}

// DefaultSelectOptions returns the selection defaults.
func DefaultSelectOptions() SelectOptions {
	return SelectOptions{MinSpacing: 200 * time.Millisecond}
}

// TargetCount adapts the merge size to how uneven the burst's quality is.
//
// The base target is 4. When the coefficient of variation of the quality
// scores exceeds 0.35 the target grows by 2 (capped at 6), since a mixed burst
// benefits from more candidates per cell. When it is under 0.1 and the burst
// has more than 3 frames the target shrinks by 1 (floored at 3).
func TargetCount(frames []Frame) int {
	if len(frames) < 2 {
		return baseTarget
	}

	q := make([]float64, len(frames))
	for i, f := range frames {
		q[i] = f.Quality
	}
	mean, std := stat.MeanStdDev(q, nil)
	if mean <= 0 {
		return baseTarget
	}

	switch cv := std / mean; {
	case cv > highVariation:
		return min(baseTarget+2, MaxTarget)
	case cv < lowVariation && len(frames) > minTarget:
		return max(baseTarget-1, minTarget)
	default:
		return baseTarget
	}
}

// SelectFrames trims a burst to the frames worth merging.
//
// Bursts no larger than the target are returned whole. Otherwise frames are
// ranked by quality; the best is always kept and the rest are added greedily
// while they are at least MinSpacing away from every frame already chosen.
// The selection is returned in timestamp order and may be smaller than the
// target when the burst is too short for the spacing.
func SelectFrames(frames []Frame, opts SelectOptions) []Frame {
	target := opts.Target
	if target <= 0 {
		target = TargetCount(frames)
	}

	out := make([]Frame, 0, min(len(frames), target))
	if len(frames) <= target {
		out = append(out, frames...)
		sortByTime(out)
		return out
	}

	ranked := make([]Frame, len(frames))
	copy(ranked, frames)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Quality > ranked[j].Quality
	})

	out = append(out, ranked[0])
	for _, f := range ranked[1:] {
		if len(out) >= target {
			break
		}
		if spacedFrom(f, out, opts.MinSpacing) {
			out = append(out, f)
		}
	}

	sortByTime(out)
	return out
}

func spacedFrom(f Frame, chosen []Frame, spacing time.Duration) bool {
	for _, c := range chosen {
		d := f.Timestamp - c.Timestamp
		if d < 0 {
			d = -d
		}
		if d < spacing {
			return false
		}
	}
	return true
}

func sortByTime(frames []Frame) {
	sort.SliceStable(frames, func(i, j int) bool {
		return frames[i].Timestamp < frames[j].Timestamp
	})
}
