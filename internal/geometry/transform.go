package geometry

import (
	"fmt"
	"math"
)

// Homography is a 3x3 projective transform stored row-major with the last
// element fixed at 1.
type Homography [9]float64

// HomographyFromQuads returns the transform that maps each from[i] onto to[i].
//
// The page rectifier passes the destination rectangle as from and the detected
// source quadrilateral as to, which yields the inverse (destination -> source)
// mapping directly and avoids a separate matrix inversion.
//
// The eight unknowns h0..h7 satisfy, for every correspondence (u,v) -> (x,y):
//
//	x = (h0*u + h1*v + h2) / (h6*u + h7*v + 1)
//	y = (h3*u + h4*v + h5) / (h6*u + h7*v + 1)
//
// Returns an error wrapping ErrSingular for degenerate correspondences
// (collinear or coincident corners).
func HomographyFromQuads(from, to Quad) (Homography, error) {
	a := make([][]float64, 8)
	b := make([]float64, 8)
	for i := 0; i < 4; i++ {
		u, v := from[i].X, from[i].Y
		x, y := to[i].X, to[i].Y
		a[2*i] = []float64{u, v, 1, 0, 0, 0, -u * x, -v * x}
		b[2*i] = x
		a[2*i+1] = []float64{0, 0, 0, u, v, 1, -u * y, -v * y}
		b[2*i+1] = y
	}

	h, err := Solve(a, b)
	if err != nil {
		return Homography{}, fmt.Errorf("homography: %w", err)
	}
	return Homography{h[0], h[1], h[2], h[3], h[4], h[5], h[6], h[7], 1}, nil
}

// Apply maps p through the homography. The boolean is false when the
// homogeneous weight vanishes and the point maps to infinity.
func (h Homography) Apply(p Point) (Point, bool) {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if math.Abs(w) < PivotEpsilon {
		return Point{}, false
	}
	return Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}, true
}

// Affine is a 2x3 affine transform [a b c; d e f] mapping (u,v) to
// (a*u + b*v + c, d*u + e*v + f).
type Affine [6]float64

// IdentityAffine leaves points unchanged.
var IdentityAffine = Affine{1, 0, 0, 0, 1, 0}

// AffineFromTriangles solves the affine transform mapping the three points of
// from onto the three points of to.
//
// Returns an error wrapping ErrSingular when from is degenerate (its three
// points are collinear, so the determinant is ~0).
func AffineFromTriangles(from, to [3]Point) (Affine, error) {
	det := Cross(from[0], from[1], from[2])
	if math.Abs(det) < PivotEpsilon {
		return Affine{}, fmt.Errorf("affine: %w: determinant %.3g", ErrSingular, det)
	}

	a := make([][]float64, 3)
	bx := make([]float64, 3)
	by := make([]float64, 3)
	for i := 0; i < 3; i++ {
		a[i] = []float64{from[i].X, from[i].Y, 1}
		bx[i] = to[i].X
		by[i] = to[i].Y
	}

	row1, err := Solve(a, bx)
	if err != nil {
		return Affine{}, fmt.Errorf("affine: %w", err)
	}
	row2, err := Solve(a, by)
	if err != nil {
		return Affine{}, fmt.Errorf("affine: %w", err)
	}
	return Affine{row1[0], row1[1], row1[2], row2[0], row2[1], row2[2]}, nil
}

// Apply maps p through the affine transform.
func (t Affine) Apply(p Point) Point {
	return Point{
		X: t[0]*p.X + t[1]*p.Y + t[2],
		Y: t[3]*p.X + t[4]*p.Y + t[5],
	}
}
