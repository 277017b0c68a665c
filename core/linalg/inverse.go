package linalg

import (
	"math"

	"github.com/YuminosukeSato/scimix/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// zeroPivot replaces a pivot column that is entirely zero.
const zeroPivot = 1e-12

// InvertWithLogDet inverts a square matrix by Gauss-Jordan elimination with
// partial pivoting and returns the inverse together with log|det|.
//
// When every candidate pivot in a column is exactly zero the diagonal entry is
// set to 1e-12 instead of failing, so near-singular covariances still yield a
// usable (very large) inverse.
func InvertWithLogDet(m mat.Matrix) (*mat.Dense, float64, error) {
	r, c := m.Dims()
	if r != c {
		return nil, 0, errors.NewDimensionError("InvertWithLogDet", r, c, 1)
	}
	n := r

	a := make([][]float64, n)
	inv := make([][]float64, n)
	for i := 0; i < n; i++ {
		a[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			a[i][j] = m.At(i, j)
		}
		inv[i] = make([]float64, n)
		inv[i][i] = 1
	}

	logDet := 0.0
	for i := 0; i < n; i++ {
		pivotRow := i
		pivotVal := math.Abs(a[i][i])
		for row := i + 1; row < n; row++ {
			if v := math.Abs(a[row][i]); v > pivotVal {
				pivotVal = v
				pivotRow = row
			}
		}

		if pivotVal == 0 {
			a[i][i] = zeroPivot
		}
		if pivotRow != i {
			a[i], a[pivotRow] = a[pivotRow], a[i]
			inv[i], inv[pivotRow] = inv[pivotRow], inv[i]
		}

		pivot := a[i][i]
		logDet += math.Log(math.Abs(pivot))

		for col := 0; col < n; col++ {
			a[i][col] /= pivot
			inv[i][col] /= pivot
		}

		for row := 0; row < n; row++ {
			if row == i {
				continue
			}
			factor := a[row][i]
			if factor == 0 {
				continue
			}
			for col := 0; col < n; col++ {
				a[row][col] -= factor * a[i][col]
				inv[row][col] -= factor * inv[i][col]
			}
		}
	}

	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		out.SetRow(i, inv[i])
	}
	return out, logDet, nil
}
