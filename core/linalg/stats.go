package linalg

import (
	"math"

	"github.com/YuminosukeSato/scimix/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Rows copies the rows of X into a slice of vectors.
func Rows(X mat.Matrix) [][]float64 {
	r, c := X.Dims()
	out := make([][]float64, r)
	for i := 0; i < r; i++ {
		row := make([]float64, c)
		mat.Row(row, i, X)
		out[i] = row
	}
	return out
}

// MeanVector returns the component-wise mean of points.
func MeanVector(points [][]float64) ([]float64, error) {
	if len(points) == 0 {
		return nil, errors.NewModelError("MeanVector", "no points", errors.ErrEmptyData)
	}
	d := len(points[0])
	mean := make([]float64, d)
	for _, p := range points {
		if len(p) != d {
			return nil, errors.NewDimensionError("MeanVector", d, len(p), 1)
		}
		floats.Add(mean, p)
	}
	floats.Scale(1/float64(len(points)), mean)
	return mean, nil
}

// VarianceVector returns the population (1/N) variance of every component,
// floored at floor.
func VarianceVector(points [][]float64, mean []float64, floor float64) []float64 {
	d := len(mean)
	vars := make([]float64, d)
	for _, p := range points {
		for j := 0; j < d; j++ {
			diff := p[j] - mean[j]
			vars[j] += diff * diff
		}
	}
	n := float64(len(points))
	for j := range vars {
		vars[j] = math.Max(vars[j]/n, floor)
	}
	return vars
}

// CovarianceMatrix returns the population (1/N) covariance of points with
// the diagonal floored at floor.
//
// stat.CovarianceMatrix normalises by N−1, which does not match the
// estimator used by the mixture priors.
func CovarianceMatrix(points [][]float64, mean []float64, floor float64) *mat.SymDense {
	d := len(mean)
	cov := mat.NewSymDense(d, nil)
	diff := mat.NewVecDense(d, nil)
	for _, p := range points {
		for j := 0; j < d; j++ {
			diff.SetVec(j, p[j]-mean[j])
		}
		cov.SymRankOne(cov, 1, diff)
	}
	cov.ScaleSym(1/float64(len(points)), cov)
	for j := 0; j < d; j++ {
		cov.SetSym(j, j, math.Max(cov.At(j, j), floor))
	}
	return cov
}
