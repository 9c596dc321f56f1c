package detection

import (
	"math"
	"sort"

	"github.com/ironsheep/pagescan/internal/geometry"
)

// MaxBruteForceVertices bounds the exhaustive 4-subset search. Simplified
// polygons with more vertices fall back to the diagonal-extremes heuristic.
const MaxBruteForceVertices = 12

// simplifyTolerance is the Douglas-Peucker epsilon as a fraction of the hull
// perimeter.
const simplifyTolerance = 0.02

// ApproximateQuad reduces a contour to a quadrilateral.
//
// Parameters:
//   - contour: Unordered pixel coordinates of one connected edge region.
//
// Returns:
//   - geometry.Quad: Four hull vertices in hull order (not yet corner-ordered).
//   - bool: false when the contour cannot be reduced to four vertices.
//
// # Algorithm
//
//  1. Convex hull of the contour (Graham scan).
//  2. Douglas-Peucker simplification of the closed hull with
//     epsilon = 0.02 * perimeter.
//  3. Exactly 4 vertices: accepted as-is. 5..MaxBruteForceVertices: the
//     4-subset with the largest shoelace area. More: the points extreme along
//     the two diagonals (min/max of x+y and x-y). Fewer than 4: rejected.
func ApproximateQuad(contour []geometry.Point) (geometry.Quad, bool) {
	hull := ConvexHull(rowExtremes(contour))
	if len(hull) < 4 {
		return geometry.Quad{}, false
	}

	poly := Simplify(hull, simplifyTolerance*geometry.Perimeter(hull))
	switch n := len(poly); {
	case n < 4:
		return geometry.Quad{}, false
	case n == 4:
		return geometry.Quad{poly[0], poly[1], poly[2], poly[3]}, true
	case n <= MaxBruteForceVertices:
		return largestQuad(poly), true
	default:
		return diagonalExtremes(poly)
	}
}

// rowExtremes keeps only the leftmost and rightmost point of every row. The
// convex hull of a pixel set depends only on these, and dense edge regions
// shrink by orders of magnitude before sorting.
func rowExtremes(pts []geometry.Point) []geometry.Point {
	type span struct{ min, max float64 }
	rows := make(map[float64]span, 256)
	for _, p := range pts {
		s, ok := rows[p.Y]
		if !ok {
			rows[p.Y] = span{p.X, p.X}
			continue
		}
		if p.X < s.min {
			s.min = p.X
		}
		if p.X > s.max {
			s.max = p.X
		}
		rows[p.Y] = s
	}

	out := make([]geometry.Point, 0, 2*len(rows))
	for y, s := range rows {
		out = append(out, geometry.Pt(s.min, y))
		if s.max != s.min {
			out = append(out, geometry.Pt(s.max, y))
		}
	}
	return out
}

// ConvexHull returns the convex hull of pts using a Graham scan.
//
// The pivot is the point with the smallest Y (then smallest X); the remaining
// points are sorted by polar angle around it, nearer points first on ties, and
// a stack keeps only strictly convex turns. Collinear boundary points are
// dropped. The result is in counter-clockwise order in a Y-up frame.
func ConvexHull(pts []geometry.Point) []geometry.Point {
	if len(pts) < 3 {
		out := make([]geometry.Point, len(pts))
		copy(out, pts)
		return out
	}

	pivot := 0
	for i, p := range pts {
		if p.Y < pts[pivot].Y || (p.Y == pts[pivot].Y && p.X < pts[pivot].X) {
			pivot = i
		}
	}
	origin := pts[pivot]

	rest := make([]geometry.Point, 0, len(pts)-1)
	for i, p := range pts {
		if i != pivot && p != origin {
			rest = append(rest, p)
		}
	}
	sort.Slice(rest, func(i, j int) bool {
		ai := math.Atan2(rest[i].Y-origin.Y, rest[i].X-origin.X)
		aj := math.Atan2(rest[j].Y-origin.Y, rest[j].X-origin.X)
		if ai != aj {
			return ai < aj
		}
		return origin.Dist(rest[i]) < origin.Dist(rest[j])
	})

	stack := make([]geometry.Point, 0, len(rest)+1)
	stack = append(stack, origin)
	for _, p := range rest {
		for len(stack) >= 2 && geometry.Cross(stack[len(stack)-2], stack[len(stack)-1], p) <= 0 {
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, p)
	}
	return stack
}

// Simplify applies Douglas-Peucker to a closed polygon without recursion.
//
// The ring is split at its first vertex and the vertex farthest from it; each
// half is then reduced with an explicit stack of index ranges. Vertices are
// returned in their original order.
func Simplify(closed []geometry.Point, epsilon float64) []geometry.Point {
	n := len(closed)
	if n <= 3 {
		out := make([]geometry.Point, n)
		copy(out, closed)
		return out
	}

	far := 0
	var farDist float64
	for i := 1; i < n; i++ {
		if d := closed[0].Dist(closed[i]); d > farDist {
			farDist = d
			far = i
		}
	}
	if far == 0 {
		return []geometry.Point{closed[0]}
	}

	// ring[n] closes the polygon back to ring[0]
	ring := make([]geometry.Point, n+1)
	copy(ring, closed)
	ring[n] = closed[0]

	keep := make([]bool, n+1)
	keep[0], keep[far], keep[n] = true, true, true

	stack := [][2]int{{0, far}, {far, n}}
	for len(stack) > 0 {
		seg := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		start, end := seg[0], seg[1]
		if end-start < 2 {
			continue
		}

		split := -1
		var maxDist float64
		for i := start + 1; i < end; i++ {
			if d := geometry.DistanceToSegment(ring[i], ring[start], ring[end]); d > maxDist {
				maxDist = d
				split = i
			}
		}
		if split >= 0 && maxDist > epsilon {
			keep[split] = true
			stack = append(stack, [2]int{start, split}, [2]int{split, end})
		}
	}

	out := make([]geometry.Point, 0, 8)
	for i := 0; i < n; i++ {
		if keep[i] {
			out = append(out, ring[i])
		}
	}
	return out
}

// largestQuad brute-forces the 4-vertex subset of poly with maximum area.
// Subsets are taken in polygon order so every candidate stays simple.
func largestQuad(poly []geometry.Point) geometry.Quad {
	n := len(poly)
	var best geometry.Quad
	bestArea := -1.0
	for a := 0; a < n-3; a++ {
		for b := a + 1; b < n-2; b++ {
			for c := b + 1; c < n-1; c++ {
				for d := c + 1; d < n; d++ {
					q := geometry.Quad{poly[a], poly[b], poly[c], poly[d]}
					if area := q.Area(); area > bestArea {
						bestArea = area
						best = q
					}
				}
			}
		}
	}
	return best
}

// diagonalExtremes picks the points farthest along the +/-45 degree axes:
// min(x+y), max(x-y), max(x+y), min(x-y). Fails if two extremes coincide.
func diagonalExtremes(poly []geometry.Point) (geometry.Quad, bool) {
	tl, tr, br, bl := poly[0], poly[0], poly[0], poly[0]
	for _, p := range poly[1:] {
		if p.X+p.Y < tl.X+tl.Y {
			tl = p
		}
		if p.X+p.Y > br.X+br.Y {
			br = p
		}
		if p.X-p.Y > tr.X-tr.Y {
			tr = p
		}
		if p.X-p.Y < bl.X-bl.Y {
			bl = p
		}
	}

	q := geometry.Quad{tl, tr, br, bl}
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			if q[i] == q[j] {
				return geometry.Quad{}, false
			}
		}
	}
	return q, true
}
