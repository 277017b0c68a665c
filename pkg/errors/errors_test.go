package errors

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Euclidean", 3, 2, 1)

	want := "scimix: Euclidean: dimension mismatch on axis 1 (features). Expected 3, got 2"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	// スタックトレースの存在確認
	formatted := fmt.Sprintf("%+v", err)
	if !strings.Contains(formatted, "errors_test.go") {
		t.Error("Expected stack trace to contain test file name")
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Fatal("Error should be castable to *DimensionError")
	}
	if dimErr.Expected != 3 || dimErr.Got != 2 {
		t.Errorf("unexpected fields: %+v", dimErr)
	}
}

func TestIsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"dimension", NewDimensionError("op", 1, 2, 0), true},
		{"validation", NewValidationError("slots", "must be >= 100", 5), true},
		{"value", NewValueError("Solve", "no sources"), true},
		{"wrapped validation", Wrap(NewValidationError("k", "out of range", 0), "fit"), true},
		{"empty", NewModelError("NewDataset", "empty source set", ErrEmptyData), true},
		{"non-finite", NewNumericalInstabilityError("source.a", []float64{1}, 0), true},
		{"superseded", ErrSuperseded, false},
		{"plain", New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsInvalidInput(tt.err); got != tt.want {
				t.Errorf("IsInvalidInput() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMarkSuperseded(t *testing.T) {
	err := Mark(WithStack(context.Canceled), ErrSuperseded)

	if !Is(err, ErrSuperseded) {
		t.Error("marked error should match ErrSuperseded")
	}
	if !Is(err, context.Canceled) {
		t.Error("marked error should still match context.Canceled")
	}
}

func TestModelErrorUnwrap(t *testing.T) {
	base := NewValueError("Fit", "empty")
	err := NewModelError("GaussianMixture.Fit", "invalid input", base)

	want := "scimix: GaussianMixture.Fit: invalid input: scimix: Fit: empty"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	var valueErr *ValueError
	if !As(err, &valueErr) {
		t.Error("ModelError should unwrap to *ValueError")
	}
}

func TestWarnRouting(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(func(w error) {})

	Warn(NewConvergenceWarning("BayesianGaussianMixture", 100, ""))

	if len(got) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(got))
	}
	if !strings.Contains(got[0].Error(), "failed to converge after 100 iterations") {
		t.Errorf("unexpected warning text: %v", got[0])
	}

	// zerolog関数が設定されている場合はそちらが優先される
	var routed int
	SetZerologWarnFunc(func(w error) { routed++ })
	defer SetZerologWarnFunc(nil)

	Warn(NewConvergenceWarning("x", 1, "y"))
	if routed != 1 || len(got) != 1 {
		t.Errorf("zerolog route not preferred: routed=%d handler=%d", routed, len(got))
	}
}

func TestLogSumExp(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, math.Inf(-1)},
		{"single", []float64{2.5}, 2.5},
		{"equal", []float64{0, 0}, math.Log(2)},
		{"large magnitude", []float64{-1000, -1000}, -1000 + math.Log(2)},
		{"all -inf", []float64{math.Inf(-1), math.Inf(-1)}, math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LogSumExp(tt.values)
			if math.IsInf(tt.want, -1) {
				if !math.IsInf(got, -1) {
					t.Errorf("LogSumExp() = %v, want -Inf", got)
				}
				return
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("LogSumExp() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckNumericalStability(t *testing.T) {
	if err := CheckNumericalStability("row", []float64{1, 2, 3}, 0); err != nil {
		t.Errorf("finite values should pass, got %v", err)
	}

	err := CheckNumericalStability("row", []float64{1, math.NaN()}, 4)
	if err == nil {
		t.Fatal("expected error for NaN")
	}
	var numErr *NumericalInstabilityError
	if !As(err, &numErr) {
		t.Fatalf("expected *NumericalInstabilityError, got %T", err)
	}
	if numErr.Iteration != 4 {
		t.Errorf("Iteration = %d, want 4", numErr.Iteration)
	}

	if err := CheckScalar("ll", math.Inf(1), 0); err == nil {
		t.Error("expected error for +Inf")
	}
}

func TestSafeExecute(t *testing.T) {
	err := SafeExecute("worker", func() error {
		var rows [][]float64
		_ = rows[3]
		return nil
	})
	if err == nil {
		t.Fatal("expected panic to be converted into an error")
	}
	var panicErr *PanicError
	if !As(err, &panicErr) {
		t.Fatalf("expected *PanicError, got %T", err)
	}
	if panicErr.Operation != "worker" || panicErr.StackTrace == "" {
		t.Errorf("unexpected panic error: %+v", panicErr)
	}

	want := New("plain failure")
	if got := SafeExecute("worker", func() error { return want }); got != want {
		t.Errorf("SafeExecute() = %v, want %v", got, want)
	}
}

func TestRecoverWrapsExistingError(t *testing.T) {
	fn := func() (err error) {
		defer Recover(&err, "solve")
		err = NewValueError("solve", "first")
		panic("second")
	}

	err := fn()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "panic in solve: second") {
		t.Errorf("missing panic context: %v", err)
	}
	var valueErr *ValueError
	if !As(err, &valueErr) {
		t.Error("original error should remain reachable")
	}
}

func TestStabilizeLog(t *testing.T) {
	if got := StabilizeLog(math.E); math.Abs(got-1) > 1e-12 {
		t.Errorf("StabilizeLog(e) = %v, want 1", got)
	}
	for _, x := range []float64{0, -1, math.NaN()} {
		got := StabilizeLog(x)
		if math.IsInf(got, 0) || math.IsNaN(got) || got > -700 {
			t.Errorf("StabilizeLog(%v) = %v, want a large finite negative value", x, got)
		}
	}
}
