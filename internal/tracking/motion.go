// Package tracking decides when a detected page has settled.
//
// Motion compares consecutive frames cheaply; Tracker keeps a short window of
// detections and motion scores and reports a page as stable only once both its
// geometry and the scene have stopped moving.
package tracking

import "image"

// Motion sampling parameters.
const (
	sampleEvery = 10
	// changeThreshold is the per-sample sum of absolute R, G, B differences
	// above which a pixel counts as changed (30 per channel).
	changeThreshold = 90
)

// Motion estimates how much changed between two frames, in [0, 1].
//
// Every 10th pixel is compared; a sample counts as changed when
// |dR|+|dG|+|dB| exceeds 90. The changed count is normalised by the number of
// sampled pixels. A nil previous frame scores 0 (nothing to compare against);
// frames of different sizes score 1.
func Motion(current, previous *image.RGBA) float64 {
	if previous == nil || current == nil {
		return 0
	}
	if current.Rect.Size() != previous.Rect.Size() {
		return 1
	}

	pixels := current.Rect.Dx() * current.Rect.Dy()
	if pixels == 0 {
		return 0
	}

	a, b := current.Pix, previous.Pix
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	changed := 0
	for i := 0; i+2 < n; i += 4 * sampleEvery {
		diff := absDiff(a[i], b[i]) + absDiff(a[i+1], b[i+1]) + absDiff(a[i+2], b[i+2])
		if diff > changeThreshold {
			changed++
		}
	}

	score := float64(changed) / (float64(pixels) / sampleEvery)
	if score > 1 {
		return 1
	}
	return score
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
