package extract

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// fallback returns raw frames when no page was captured: every analysed step
// whose sharpness reached MinQuality, in time order, capped at MaxFrames. When
// the filter leaves nothing, every non-empty step is used instead so a
// non-empty video never yields an empty result.
func (r *run) fallback(ctx context.Context, src FrameSource) ([]PageResult, error) {
	opts := r.e.opts

	steps := r.fallbackSteps(opts.MinQuality)
	if len(steps) == 0 {
		r.log.Debug("No frame reached the quality floor, using all frames", "min_quality", opts.MinQuality)
		steps = r.fallbackSteps(0)
	}
	if opts.MaxFrames > 0 && len(steps) > opts.MaxFrames {
		steps = steps[:opts.MaxFrames]
	}

	pages := make([]PageResult, 0, len(steps))
	for _, i := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		at := time.Duration(i) * opts.Interval
		f, err := fetch(ctx, src, at)
		if err != nil {
			return nil, err
		}
		pages = append(pages, PageResult{
			ID:           uuid.NewString(),
			Index:        len(pages),
			Image:        f.full,
			QualityScore: r.qualities[i],
			StartTime:    at,
			EndTime:      at,
			FrameCount:   1,
			Fallback:     true,
		})
	}
	r.log.Info("Fallback frames selected", "frames", len(pages), "analysed", len(r.qualities))
	return pages, nil
}

// fallbackSteps lists the indices of analysed steps with quality >= floor.
// Skipped steps are never included.
func (r *run) fallbackSteps(floor float64) []int {
	var steps []int
	for i, q := range r.qualities {
		if q < 0 || q < floor {
			continue
		}
		steps = append(steps, i)
	}
	return steps
}
