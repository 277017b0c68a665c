// Package linalg provides the small set of vector and matrix routines shared
// by the distance ranker, the mixture solver and the Gaussian mixture model.
package linalg

import (
	"math"

	"github.com/YuminosukeSato/scimix/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Euclidean returns sqrt(Σ(a_i−b_i)²).
func Euclidean(a, b []float64) (float64, error) {
	d, err := SquaredEuclidean(a, b)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(d), nil
}

// SquaredEuclidean returns Σ(a_i−b_i)².
func SquaredEuclidean(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, errors.NewDimensionError("SquaredEuclidean", len(a), len(b), 1)
	}
	s := 0.0
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s, nil
}

// CosineSimilarity returns a·b / (‖a‖‖b‖), or 0 when either norm is zero.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, errors.NewDimensionError("CosineSimilarity", len(a), len(b), 1)
	}
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return floats.Dot(a, b) / (na * nb), nil
}

// Scaled returns a copy of v with every component divided by s.
func Scaled(v []float64, s float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	floats.Scale(1/s, out)
	return out
}
