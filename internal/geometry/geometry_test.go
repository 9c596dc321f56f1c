package geometry

import (
	"errors"
	"math"
	"testing"
)

func TestPolygonArea(t *testing.T) {
	tests := []struct {
		name string
		pts  []Point
		want float64
	}{
		{"unit square", []Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, 1},
		{"rectangle reversed", []Point{{0, 0}, {0, 3}, {4, 3}, {4, 0}}, 12},
		{"triangle", []Point{{0, 0}, {4, 0}, {0, 3}}, 6},
		{"degenerate", []Point{{0, 0}, {1, 1}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PolygonArea(tt.pts); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("PolygonArea: got %.3f, want %.3f", got, tt.want)
			}
		})
	}
}

func TestPerimeterAndCentroid(t *testing.T) {
	sq := []Point{{0, 0}, {2, 0}, {2, 2}, {0, 2}}
	if got := Perimeter(sq); math.Abs(got-8) > 1e-9 {
		t.Errorf("Perimeter: got %.3f, want 8", got)
	}
	if c := Centroid(sq); c != (Point{1, 1}) {
		t.Errorf("Centroid: got %+v, want {1 1}", c)
	}
	if c := Centroid(nil); c != (Point{}) {
		t.Errorf("Centroid(nil): got %+v, want zero", c)
	}
}

func TestDistanceToSegment(t *testing.T) {
	a, b := Pt(0, 0), Pt(10, 0)
	tests := []struct {
		p    Point
		want float64
	}{
		{Pt(5, 3), 3},
		{Pt(-4, 3), 5},
		{Pt(13, 4), 5},
	}
	for _, tt := range tests {
		if got := DistanceToSegment(tt.p, a, b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("DistanceToSegment(%+v): got %.3f, want %.3f", tt.p, got, tt.want)
		}
	}
}

func TestQuadHelpers(t *testing.T) {
	q := Quad{{0, 0}, {4, 0}, {4, 3}, {0, 3}}
	top, right, bottom, left := q.Edges()
	if top != 4 || bottom != 4 || left != 3 || right != 3 {
		t.Errorf("Edges: got %v %v %v %v", top, right, bottom, left)
	}
	if q.Area() != 12 {
		t.Errorf("Area: got %.2f, want 12", q.Area())
	}

	moved := q
	moved[2] = Pt(7, 7)
	if got := q.MaxCornerShift(moved); got != 5 {
		t.Errorf("MaxCornerShift: got %.2f, want 5", got)
	}
}

func TestSolve(t *testing.T) {
	// 2x + y - z = 8; -3x - y + 2z = -11; -2x + y + 2z = -3 -> (2, 3, -1)
	a := [][]float64{
		{2, 1, -1},
		{-3, -1, 2},
		{-2, 1, 2},
	}
	b := []float64{8, -11, -3}

	x, err := Solve(a, b)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	want := []float64{2, 3, -1}
	for i := range want {
		if math.Abs(x[i]-want[i]) > 1e-9 {
			t.Errorf("x[%d]: got %.6f, want %.6f", i, x[i], want[i])
		}
	}

	// Inputs are not modified
	if a[0][0] != 2 || b[0] != 8 {
		t.Error("Solve modified its inputs")
	}
}

func TestSolve_NeedsPivoting(t *testing.T) {
	// Zero on the leading diagonal forces a row swap
	a := [][]float64{
		{0, 1},
		{1, 0},
	}
	x, err := Solve(a, []float64{3, 5})
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if x[0] != 5 || x[1] != 3 {
		t.Errorf("got %v, want [5 3]", x)
	}
}

func TestSolve_Singular(t *testing.T) {
	a := [][]float64{
		{1, 2},
		{2, 4},
	}
	_, err := Solve(a, []float64{1, 2})
	if !errors.Is(err, ErrSingular) {
		t.Fatalf("expected ErrSingular, got %v", err)
	}
}

func TestSolve_ShapeMismatch(t *testing.T) {
	if _, err := Solve([][]float64{{1, 2}}, []float64{1, 2}); err == nil {
		t.Error("expected error for row/vector mismatch")
	}
	if _, err := Solve([][]float64{{1}, {2}}, []float64{1, 2}); err == nil {
		t.Error("expected error for non-square matrix")
	}
}

func TestHomographyFromQuads_Identity(t *testing.T) {
	q := Quad{{0, 0}, {100, 0}, {100, 50}, {0, 50}}
	h, err := HomographyFromQuads(q, q)
	if err != nil {
		t.Fatalf("HomographyFromQuads failed: %v", err)
	}

	p, ok := h.Apply(Pt(37, 12))
	if !ok {
		t.Fatal("Apply reported point at infinity")
	}
	if p.Dist(Pt(37, 12)) > 1e-6 {
		t.Errorf("identity mapping moved point to %+v", p)
	}
}

func TestHomographyFromQuads_MapsCorners(t *testing.T) {
	rect := Quad{{0, 0}, {200, 0}, {200, 300}, {0, 300}}
	skew := Quad{{30, 20}, {210, 40}, {190, 310}, {15, 280}}

	h, err := HomographyFromQuads(rect, skew)
	if err != nil {
		t.Fatalf("HomographyFromQuads failed: %v", err)
	}

	for i := range rect {
		got, ok := h.Apply(rect[i])
		if !ok {
			t.Fatalf("corner %d mapped to infinity", i)
		}
		if got.Dist(skew[i]) > 1e-6 {
			t.Errorf("corner %d: got %+v, want %+v", i, got, skew[i])
		}
	}
}

func TestHomographyFromQuads_Degenerate(t *testing.T) {
	rect := Quad{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	line := Quad{{0, 0}, {5, 0}, {10, 0}, {15, 0}}

	// Mapping onto a line is fine numerically only if the system is solvable;
	// mapping from a line never is.
	if _, err := HomographyFromQuads(line, rect); !errors.Is(err, ErrSingular) {
		t.Errorf("expected ErrSingular for collinear source, got %v", err)
	}
}

func TestAffineFromTriangles(t *testing.T) {
	from := [3]Point{{0, 0}, {10, 0}, {0, 10}}
	// rotate 90 degrees and translate by (5, 7)
	to := [3]Point{{5, 7}, {5, 17}, {-5, 7}}

	tr, err := AffineFromTriangles(from, to)
	if err != nil {
		t.Fatalf("AffineFromTriangles failed: %v", err)
	}

	got := tr.Apply(Pt(10, 10))
	if got.Dist(Pt(-5, 17)) > 1e-9 {
		t.Errorf("Apply(10,10): got %+v, want {-5 17}", got)
	}
}

func TestAffineFromTriangles_Collinear(t *testing.T) {
	from := [3]Point{{0, 0}, {5, 5}, {10, 10}}
	to := [3]Point{{0, 0}, {1, 0}, {0, 1}}
	if _, err := AffineFromTriangles(from, to); !errors.Is(err, ErrSingular) {
		t.Errorf("expected ErrSingular, got %v", err)
	}
}

func TestIdentityAffine(t *testing.T) {
	p := Pt(3.5, -2)
	if got := IdentityAffine.Apply(p); got != p {
		t.Errorf("IdentityAffine moved %+v to %+v", p, got)
	}
}
