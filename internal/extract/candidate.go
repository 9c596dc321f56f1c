package extract

import (
	"time"

	"github.com/ironsheep/pagescan/internal/content"
	"github.com/ironsheep/pagescan/internal/merge"
)

// candidate accumulates the frames of one physical page while it is held in
// view. It owns its frame buffers until finalize takes them.
//
// Only the frames a merge could use are retained: once the burst outgrows
// retain.Target it is trimmed with merge.SelectFrames, so a page held for a
// minute costs no more memory than one held for a second. seen counts every
// frame that joined the page, retained or not.
type candidate struct {
	frames     []merge.Frame
	confidence map[int]float64
	hist       content.Average
	retain     merge.SelectOptions
	seen       int
	start      time.Duration
	end        time.Duration
}

func newCandidate(f merge.Frame, confidence float64, h content.Histogram, retain merge.SelectOptions) *candidate {
	c := &candidate{
		confidence: make(map[int]float64),
		retain:     retain,
		start:      f.Timestamp,
	}
	c.add(f, confidence, h)
	return c
}

func (c *candidate) add(f merge.Frame, confidence float64, h content.Histogram) {
	c.frames = append(c.frames, f)
	c.confidence[f.FrameIndex] = confidence
	c.hist.Add(h)
	c.seen++
	c.end = f.Timestamp

	if c.retain.Target > 0 && len(c.frames) > c.retain.Target {
		c.prune()
	}
}

// prune drops the frames SelectFrames would not pick, along with their
// confidence entries.
func (c *candidate) prune() {
	kept := merge.SelectFrames(c.frames, c.retain)
	confidence := make(map[int]float64, len(kept))
	for _, f := range kept {
		confidence[f.FrameIndex] = c.confidence[f.FrameIndex]
	}
	c.frames = kept
	c.confidence = confidence
}

// len is the number of frames that joined the page.
func (c *candidate) len() int {
	return c.seen
}

// retained is the number of frame buffers currently held.
func (c *candidate) retained() int {
	return len(c.frames)
}

// histogram is the running mean content histogram of the page.
func (c *candidate) histogram() content.Histogram {
	return c.hist.Mean()
}

// take hands the frames to the caller and leaves the candidate empty, so the
// buffers are released as soon as the caller is done with them.
func (c *candidate) take() []merge.Frame {
	frames := c.frames
	c.frames = nil
	return frames
}

// best returns the highest-quality frame.
func best(frames []merge.Frame) merge.Frame {
	b := frames[0]
	for _, f := range frames[1:] {
		if f.Quality > b.Quality {
			b = f
		}
	}
	return b
}
