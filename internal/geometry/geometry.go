// Package geometry provides the planar primitives shared by the page pipeline:
// points, quadrilaterals, polygon measures, a small dense linear solver and the
// projective/affine transforms built on it.
//
// # Coordinate System
//
// Coordinates are floating-point pixel positions with the origin at the
// top-left corner of a frame, X increasing rightward and Y increasing downward.
// A pixel (x, y) covers the area [x, x+1) x [y, y+1); sampling a coordinate
// that lands exactly on an integer refers to that pixel's centre in the
// resampling code.
package geometry

import "math"

// Point is a 2D position in pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Scale multiplies both coordinates by s.
func (p Point) Scale(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Cross returns the z component of (a - o) x (b - o). Positive values mean
// o -> a -> b turns counter-clockwise in a Y-up frame, which is clockwise on
// screen where Y grows downward.
func Cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// Quad is a quadrilateral ordered top-left, top-right, bottom-right,
// bottom-left (clockwise on screen).
type Quad [4]Point

// Index names for Quad corners.
const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

// Area returns the absolute area of the quadrilateral.
func (q Quad) Area() float64 {
	return PolygonArea(q[:])
}

// Centroid returns the mean of the four corners.
func (q Quad) Centroid() Point {
	return Centroid(q[:])
}

// Scale returns a copy of q with every corner multiplied by s.
func (q Quad) Scale(s float64) Quad {
	var out Quad
	for i, p := range q {
		out[i] = p.Scale(s)
	}
	return out
}

// Edges returns the lengths of the top, right, bottom and left sides.
func (q Quad) Edges() (top, right, bottom, left float64) {
	return q[TopLeft].Dist(q[TopRight]),
		q[TopRight].Dist(q[BottomRight]),
		q[BottomRight].Dist(q[BottomLeft]),
		q[BottomLeft].Dist(q[TopLeft])
}

// MaxCornerShift returns the largest distance any corner moved between q and o.
func (q Quad) MaxCornerShift(o Quad) float64 {
	var shift float64
	for i := range q {
		if d := q[i].Dist(o[i]); d > shift {
			shift = d
		}
	}
	return shift
}

// PolygonArea returns the absolute shoelace area of a closed polygon.
func PolygonArea(pts []Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return math.Abs(sum) / 2
}

// Perimeter returns the length of the closed polygon through pts.
func Perimeter(pts []Point) float64 {
	n := len(pts)
	if n < 2 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += pts[i].Dist(pts[(i+1)%n])
	}
	return sum
}

// Centroid returns the arithmetic mean of pts. Returns the zero Point for an
// empty slice.
func Centroid(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var c Point
	for _, p := range pts {
		c.X += p.X
		c.Y += p.Y
	}
	n := float64(len(pts))
	return Point{X: c.X / n, Y: c.Y / n}
}

// DistanceToSegment returns the distance from p to the segment a-b.
func DistanceToSegment(p, a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return p.Dist(Point{X: a.X + t*dx, Y: a.Y + t*dy})
}
