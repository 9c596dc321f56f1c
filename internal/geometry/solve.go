package geometry

import (
	"errors"
	"fmt"
	"math"
)

// PivotEpsilon is the smallest pivot magnitude Solve accepts before declaring
// the system singular.
const PivotEpsilon = 1e-10

// ErrSingular reports a linear system (or transform) too close to singular to
// solve without producing NaN or Inf values.
var ErrSingular = errors.New("geometry: singular system")

// Solve solves the square system a*x = b by Gaussian elimination with partial
// pivoting. Neither a nor b is modified.
//
// Returns ErrSingular (wrapped with the failing column) when the best pivot in
// a column is smaller than PivotEpsilon.
func Solve(a [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	if len(a) != n {
		return nil, fmt.Errorf("geometry: matrix has %d rows, vector has %d", len(a), n)
	}

	// Augmented working copy
	m := make([][]float64, n)
	for i := range a {
		if len(a[i]) != n {
			return nil, fmt.Errorf("geometry: row %d has %d columns, want %d", i, len(a[i]), n)
		}
		m[i] = make([]float64, n+1)
		copy(m[i], a[i])
		m[i][n] = b[i]
	}

	for col := 0; col < n; col++ {
		pivot := col
		best := math.Abs(m[col][col])
		for row := col + 1; row < n; row++ {
			if v := math.Abs(m[row][col]); v > best {
				best = v
				pivot = row
			}
		}
		if best < PivotEpsilon {
			return nil, fmt.Errorf("%w: pivot %.3g in column %d", ErrSingular, best, col)
		}
		m[col], m[pivot] = m[pivot], m[col]

		for row := col + 1; row < n; row++ {
			f := m[row][col] / m[col][col]
			if f == 0 {
				continue
			}
			for k := col; k <= n; k++ {
				m[row][k] -= f * m[col][k]
			}
		}
	}

	// Back substitution
	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := m[row][n]
		for k := row + 1; k < n; k++ {
			sum -= m[row][k] * x[k]
		}
		x[row] = sum / m[row][row]
	}

	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrSingular
		}
	}
	return x, nil
}
