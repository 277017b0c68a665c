package preprocessing

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/scimix/core/model"
	"github.com/YuminosukeSato/scimix/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	_ model.Transformer = (*StandardScaler)(nil)
	_ model.Transformer = (*MinMaxScaler)(nil)
)

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 5,
		2, 5,
		3, 5,
		4, 5,
	})

	scaler := NewStandardScalerDefault()
	out, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	col0 := mat.Col(nil, 0, out)
	if math.Abs(floats.Sum(col0)) > 1e-12 {
		t.Errorf("column 0 mean = %v, want 0", floats.Sum(col0)/4)
	}
	// 母標準偏差 sqrt(1.25)
	if math.Abs(scaler.Scale[0]-math.Sqrt(1.25)) > 1e-12 {
		t.Errorf("Scale[0] = %v", scaler.Scale[0])
	}
	// 定数列はスケール1で平均だけ引かれる
	if scaler.Scale[1] != 1 || out.At(0, 1) != 0 {
		t.Errorf("constant column: scale %v, value %v", scaler.Scale[1], out.At(0, 1))
	}

	back, err := scaler.InverseTransform(out)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.EqualApprox(back, X, 1e-12) {
		t.Errorf("InverseTransform = %v", mat.Formatted(back))
	}
}

func TestMinMaxScaler(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		0, -1,
		5, 0,
		10, 1,
	})

	scaler := NewMinMaxScaler([2]float64{-1, 1})
	out, err := scaler.FitTransform(X)
	if err != nil {
		t.Fatal(err)
	}
	want := mat.NewDense(3, 2, []float64{
		-1, -1,
		0, 0,
		1, 1,
	})
	if !mat.EqualApprox(out, want, 1e-12) {
		t.Errorf("Transform = %v", mat.Formatted(out))
	}

	back, err := scaler.InverseTransform(out)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.EqualApprox(back, X, 1e-12) {
		t.Errorf("InverseTransform = %v", mat.Formatted(back))
	}

	if err := NewMinMaxScaler([2]float64{1, 1}).Fit(X); !errors.IsInvalidInput(err) {
		t.Errorf("empty feature range should be invalid, got %v", err)
	}
}

func TestScalerErrors(t *testing.T) {
	scaler := NewStandardScalerDefault()
	if _, err := scaler.Transform(mat.NewDense(1, 1, nil)); err == nil {
		t.Error("Transform before Fit should fail")
	}
	if err := scaler.Fit(mat.NewDense(2, 2, nil)); err != nil {
		t.Fatal(err)
	}
	_, err := scaler.Transform(mat.NewDense(1, 3, nil))
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Errorf("expected DimensionError, got %v", err)
	}
}

func TestNewScaler(t *testing.T) {
	for _, name := range []string{ScalerStandard, ScalerMinMax} {
		s, err := NewScaler(name)
		if err != nil || s == nil {
			t.Errorf("NewScaler(%q) = %v, %v", name, s, err)
		}
	}
	if s, err := NewScaler(ScalerNone); s != nil || err != nil {
		t.Errorf("NewScaler(none) = %v, %v", s, err)
	}
	if _, err := NewScaler("robust"); !errors.IsInvalidInput(err) {
		t.Errorf("unknown scaler should be invalid input, got %v", err)
	}
}
