package extract

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/pagescan/internal/content"
	"github.com/ironsheep/pagescan/internal/merge"
)

func heldFrame(img *image.RGBA, index int, interval time.Duration, quality float64) merge.Frame {
	return merge.Frame{
		Image:      img,
		Corners:    pageCorners,
		Quality:    quality,
		FrameIndex: index,
		Timestamp:  time.Duration(index) * interval,
	}
}

func TestCandidate_LongHoldIsBounded(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	hist := make(content.Histogram, content.Bins)
	hist[0] = 1
	retain := merge.SelectOptions{Target: merge.MaxTarget, MinSpacing: 200 * time.Millisecond}

	// One minute at 500ms; frame 57 is the sharpest
	quality := func(i int) float64 {
		if i == 57 {
			return 100
		}
		return float64(10 + i%7)
	}
	c := newCandidate(heldFrame(img, 0, 500*time.Millisecond, quality(0)), 0.9, hist, retain)
	for i := 1; i < 120; i++ {
		c.add(heldFrame(img, i, 500*time.Millisecond, quality(i)), 0.8, hist)
		require.LessOrEqual(t, c.retained(), merge.MaxTarget, "after frame %d", i)
	}

	assert.Equal(t, 120, c.len())
	assert.Len(t, c.confidence, c.retained())
	assert.Equal(t, time.Duration(0), c.start)
	assert.Equal(t, 119*500*time.Millisecond, c.end)

	frames := c.take()
	assert.Equal(t, 57, best(frames).FrameIndex, "the sharpest frame survives pruning")
	for i := 1; i < len(frames); i++ {
		assert.Less(t, frames[i-1].Timestamp, frames[i].Timestamp, "retained frames stay in time order")
	}
	for _, f := range frames {
		_, ok := c.confidence[f.FrameIndex]
		assert.True(t, ok, "confidence kept for frame %d", f.FrameIndex)
	}
}

func TestCandidate_SingleRetainedFrame(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	hist := make(content.Histogram, content.Bins)
	retain := merge.SelectOptions{Target: 1}

	c := newCandidate(heldFrame(img, 0, time.Second, 5), 0.9, hist, retain)
	c.add(heldFrame(img, 1, time.Second, 9), 0.7, hist)
	c.add(heldFrame(img, 2, time.Second, 3), 0.6, hist)

	assert.Equal(t, 3, c.len())
	require.Equal(t, 1, c.retained())
	assert.Equal(t, 1, c.frames[0].FrameIndex)
	assert.Equal(t, map[int]float64{1: 0.7}, c.confidence)
}

func TestRetention(t *testing.T) {
	opts := testOptions()
	r := &run{e: newExtractor(t, opts)}
	assert.Equal(t, merge.MaxTarget, r.retention().Target)
	assert.Equal(t, opts.Selection.MinSpacing, r.retention().MinSpacing)

	opts.Merge = false
	r = &run{e: newExtractor(t, opts)}
	assert.Equal(t, 1, r.retention().Target)

	opts.Merge = true
	opts.Selection.Target = 9
	r = &run{e: newExtractor(t, opts)}
	assert.Equal(t, 9, r.retention().Target)
}
