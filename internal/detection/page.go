package detection

import (
	"image"
	"math"
	"sort"
	"time"

	"github.com/ironsheep/pagescan/internal/geometry"
	"github.com/ironsheep/pagescan/internal/imaging"
)

// Options configures page detection. Use DefaultOptions and override fields;
// the zero value rejects nothing and is rarely what you want.
type Options struct {
	// MinArea is the fraction of the frame area a page must cover (0..1).
	MinArea float64 `json:"min_area"`

	// MaxSkewAngle is the largest interior-angle deviation from 90 degrees a
	// page is expected to show. Advisory: it is recorded on each Page as
	// WithinSkew but never causes a rejection.
	MaxSkewAngle float64 `json:"max_skew_angle"`

	// Threshold is a fixed edge-magnitude threshold. Zero selects the adaptive
	// threshold.
	Threshold uint8 `json:"threshold,omitempty"`

	// MinContourSize is the smallest edge region, in pixels, considered.
	MinContourSize int `json:"min_contour_size"`
}

// DefaultOptions returns the detector defaults.
func DefaultOptions() Options {
	return Options{
		MinArea:        0.2,
		MaxSkewAngle:   30,
		MinContourSize: MinContourSize,
	}
}

// Page is the detection result for one frame.
//
// Corners are ordered clockwise on screen starting at the top-left. A Page is
// immutable once returned, except that the orchestrator back-fills FrameIndex,
// Timestamp and QualityScore immediately after detection.
type Page struct {
	Corners    geometry.Quad `json:"corners"`
	Confidence float64       `json:"confidence"`

	// Area is the quadrilateral's area in square pixels.
	Area float64 `json:"area"`

	// Skew is the largest interior-angle deviation from 90 degrees.
	Skew       float64 `json:"skew"`
	WithinSkew bool    `json:"within_skew"`

	FrameIndex   int           `json:"frame_index"`
	Timestamp    time.Duration `json:"timestamp"`
	QualityScore float64       `json:"quality_score"`
}

// Detector finds the dominant document page in a frame.
//
// A Detector holds only its options and is safe for concurrent use.
type Detector struct {
	opts Options
}

// NewDetector creates a detector with the given options.
func NewDetector(opts Options) *Detector {
	return &Detector{opts: opts}
}

// Options returns the detector's configuration.
func (d *Detector) Options() Options {
	return d.opts
}

// Detect runs the full pipeline on a frame and returns the largest
// quadrilateral covering at least MinArea of the frame, or nil when no such
// page is visible. A nil result is the normal outcome for empty scenes, not an
// error.
func (d *Detector) Detect(frame *image.RGBA) *Page {
	return d.DetectGray(imaging.Grayscale(frame))
}

// DetectGray is Detect for callers that already hold the luminance map.
//
// # Algorithm
//
//  1. Sobel gradient magnitude of the luminance map.
//  2. Threshold: Options.Threshold, or AdaptiveThreshold of the luminance map.
//  3. FindContours over the thresholded magnitudes.
//  4. ApproximateQuad on every contour; quads smaller than
//     MinArea * frame area are discarded.
//  5. The largest surviving quad is corner-ordered and scored.
func (d *Detector) DetectGray(gray *imaging.GrayMap) *Page {
	frameArea := float64(gray.Width * gray.Height)
	if frameArea == 0 {
		return nil
	}

	threshold := d.opts.Threshold
	if threshold == 0 {
		threshold = AdaptiveThreshold(gray)
	}
	minSize := d.opts.MinContourSize
	if minSize <= 0 {
		minSize = MinContourSize
	}

	edges := imaging.Sobel(gray)
	contours := FindContours(edges, threshold, minSize)

	var best geometry.Quad
	bestArea := 0.0
	found := false
	for _, contour := range contours {
		quad, ok := ApproximateQuad(contour)
		if !ok {
			continue
		}
		area := quad.Area()
		if area < d.opts.MinArea*frameArea {
			continue
		}
		if area > bestArea {
			best = quad
			bestArea = area
			found = true
		}
	}
	if !found {
		return nil
	}

	corners := OrderCorners(best)
	skew := maxAngleDeviation(corners)
	return &Page{
		Corners:    corners,
		Confidence: Confidence(corners),
		Area:       bestArea,
		Skew:       skew,
		WithinSkew: d.opts.MaxSkewAngle <= 0 || skew <= d.opts.MaxSkewAngle,
	}
}

// OrderCorners sorts four points by polar angle around their centroid (which
// runs clockwise on screen) and rotates the cycle so the point with the
// smallest x+y comes first.
//
// This assumes a roughly upright document. A page rotated close to 45 degrees
// has two candidates for "smallest x+y" and may come back rotated by one
// position.
func OrderCorners(q geometry.Quad) geometry.Quad {
	c := q.Centroid()
	pts := q
	sort.Slice(pts[:], func(i, j int) bool {
		return math.Atan2(pts[i].Y-c.Y, pts[i].X-c.X) < math.Atan2(pts[j].Y-c.Y, pts[j].X-c.X)
	})

	first := 0
	for i := 1; i < 4; i++ {
		if pts[i].X+pts[i].Y < pts[first].X+pts[first].Y {
			first = i
		}
	}

	var out geometry.Quad
	for i := 0; i < 4; i++ {
		out[i] = pts[(first+i)%4]
	}
	return out
}

// Confidence scores how rectangular a corner-ordered quadrilateral looks.
//
// The result is the mean of two scores in [0, 1]:
//   - aspect: the shorter/longer ratio of the top and bottom edges averaged
//     with that of the left and right edges (1 for a parallelogram)
//   - angle: 1 - mean(|interior angle - 90|)/45, floored at 0
func Confidence(q geometry.Quad) float64 {
	top, right, bottom, left := q.Edges()
	aspect := (sideRatio(top, bottom) + sideRatio(left, right)) / 2

	var dev float64
	for i := 0; i < 4; i++ {
		dev += math.Abs(interiorAngle(q, i) - 90)
	}
	angle := math.Max(0, 1-(dev/4)/45)

	return (aspect + angle) / 2
}

func sideRatio(a, b float64) float64 {
	hi := math.Max(a, b)
	if hi == 0 {
		return 0
	}
	return math.Min(a, b) / hi
}

// interiorAngle returns the angle at corner i in degrees.
func interiorAngle(q geometry.Quad, i int) float64 {
	p := q[i]
	prev := q[(i+3)%4].Sub(p)
	next := q[(i+1)%4].Sub(p)
	lp := math.Hypot(prev.X, prev.Y)
	ln := math.Hypot(next.X, next.Y)
	if lp == 0 || ln == 0 {
		return 0
	}
	cos := (prev.X*next.X + prev.Y*next.Y) / (lp * ln)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

func maxAngleDeviation(q geometry.Quad) float64 {
	var worst float64
	for i := 0; i < 4; i++ {
		if d := math.Abs(interiorAngle(q, i) - 90); d > worst {
			worst = d
		}
	}
	return worst
}
