package mixture

import (
	"context"
	"math/rand"
	"sort"
	"testing"

	"github.com/YuminosukeSato/scimix/core/model"
	"github.com/YuminosukeSato/scimix/pkg/errors"
)

func importanceFixture() (model.Row, []model.Row) {
	sources := []model.Row{
		{Name: "A", Vector: []float64{1, 2, 3, 4, 5, 6}},
		{Name: "B", Vector: []float64{6, 5, 4, 3, 2, 1}},
		{Name: "C", Vector: []float64{40, 40, 40, 40, 40, 40}},
	}
	// 0.7·A + 0.3·B
	target := model.Row{Name: "T", Vector: []float64{2.5, 2.9, 3.3, 3.7, 4.1, 4.5}}
	return target, sources
}

func TestLCGAndPermute(t *testing.T) {
	g1 := newLCG(shuffleSeed(0))
	g2 := newLCG(123456789)
	for i := 0; i < 5; i++ {
		a, b := g1.Float64(), g2.Float64()
		if a != b {
			t.Fatalf("generators diverge at step %d", i)
		}
		if a < 0 || a >= 1 {
			t.Fatalf("value out of [0, 1): %v", a)
		}
	}

	v := []float64{1, 2, 3, 4, 5, 6}
	p := permute(v, newLCG(shuffleSeed(2)))
	q := permute(v, newLCG(shuffleSeed(2)))
	for i := range p {
		if p[i] != q[i] {
			t.Fatalf("permutation not deterministic: %v vs %v", p, q)
		}
	}
	sorted := append([]float64(nil), p...)
	sort.Float64s(sorted)
	for i := range sorted {
		if sorted[i] != v[i] {
			t.Fatalf("permute lost components: %v", p)
		}
	}
	if v[0] != 1 || v[5] != 6 {
		t.Error("permute must not modify its input")
	}
}

func TestImportanceUsedOnly(t *testing.T) {
	target, sources := importanceFixture()
	solver := NewSolver(WithSlots(100), WithCyclesMultiplier(40))

	base, err := solver.Solve(context.Background(), rand.New(rand.NewSource(5)), target, sources)
	if err != nil {
		t.Fatal(err)
	}

	report, err := solver.Importance(context.Background(), rand.New(rand.NewSource(6)), target, sources, base,
		WithPermutations(3), WithUsedOnly(true))
	if err != nil {
		t.Fatalf("Importance() error = %v", err)
	}

	for i, w := range base.Weights {
		if want := w > UsedWeightThreshold; report.Evaluated[i] != want {
			t.Errorf("Evaluated[%d] = %v, want %v (weight %v)", i, report.Evaluated[i], want, w)
		}
		if !report.Evaluated[i] && report.Delta[i] != 0 {
			t.Errorf("Delta[%d] = %v for an excluded source", i, report.Delta[i])
		}
	}
	if !report.Evaluated[0] || report.Delta[0] <= 0 {
		t.Errorf("shuffling A should increase the distance, delta = %v", report.Delta[0])
	}
	if report.Permutations != 3 {
		t.Errorf("Permutations = %d", report.Permutations)
	}
}

func TestImportanceReproducible(t *testing.T) {
	target, sources := importanceFixture()
	solver := NewSolver(WithSlots(100), WithCyclesMultiplier(20))

	run := func() *ImportanceReport {
		base, err := solver.Solve(context.Background(), rand.New(rand.NewSource(1)), target, sources)
		if err != nil {
			t.Fatal(err)
		}
		report, err := solver.Importance(context.Background(), rand.New(rand.NewSource(2)), target, sources, base,
			WithPermutations(2))
		if err != nil {
			t.Fatal(err)
		}
		return report
	}

	a, b := run(), run()
	for i := range a.Delta {
		if a.Delta[i] != b.Delta[i] || !a.Evaluated[i] {
			t.Errorf("source %d: %v vs %v (evaluated %v)", i, a.Delta[i], b.Delta[i], a.Evaluated[i])
		}
	}
}

func TestUsedMask(t *testing.T) {
	got := UsedMask([]float64{0.5, 0, 1e-7, 0.4999999})
	want := []bool{true, false, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("UsedMask[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestImportanceUsedPool(t *testing.T) {
	target, sources := importanceFixture()
	solver := NewSolver(WithSlots(100), WithCyclesMultiplier(10))
	base, err := solver.Solve(context.Background(), rand.New(rand.NewSource(1)), target, sources)
	if err != nil {
		t.Fatal(err)
	}

	report, err := solver.Importance(context.Background(), rand.New(rand.NewSource(2)), target, sources, base,
		WithPermutations(1), WithUsedOnly(true), WithAllowed(UsedMask(base.Weights)))
	if err != nil {
		t.Fatal(err)
	}
	for i, w := range base.Weights {
		if report.Evaluated[i] != (w > UsedWeightThreshold) {
			t.Errorf("source %d: evaluated %v with weight %v", i, report.Evaluated[i], w)
		}
	}
}

func TestImportanceAllowedMask(t *testing.T) {
	target, sources := importanceFixture()
	solver := NewSolver(WithSlots(100), WithCyclesMultiplier(10))
	base, err := solver.Solve(context.Background(), rand.New(rand.NewSource(1)), target, sources)
	if err != nil {
		t.Fatal(err)
	}

	report, err := solver.Importance(context.Background(), rand.New(rand.NewSource(2)), target, sources, base,
		WithPermutations(1), WithAllowed([]bool{true, true, false}))
	if err != nil {
		t.Fatal(err)
	}
	if !report.Evaluated[2] {
		t.Error("the allowed mask must not change which sources are evaluated")
	}

	_, err = solver.Importance(context.Background(), nil, target, sources, base,
		WithAllowed([]bool{false, false, false}))
	if !errors.IsInvalidInput(err) {
		t.Errorf("empty pool should be invalid input, got %v", err)
	}

	_, err = solver.Importance(context.Background(), nil, target, sources, base,
		WithAllowed([]bool{true}))
	if !errors.IsInvalidInput(err) {
		t.Errorf("short mask should be invalid input, got %v", err)
	}

	_, err = solver.Importance(context.Background(), nil, target, sources, base, WithPermutations(0))
	if !errors.IsInvalidInput(err) {
		t.Errorf("zero permutations should be invalid input, got %v", err)
	}
}

func TestImportanceSuperseded(t *testing.T) {
	target, sources := importanceFixture()
	solver := NewSolver(WithSlots(100), WithCyclesMultiplier(4))
	base, err := solver.Solve(context.Background(), rand.New(rand.NewSource(1)), target, sources)
	if err != nil {
		t.Fatal(err)
	}

	tracker := model.NewJobTracker()
	ctx, job := tracker.Start(context.Background())
	defer job.Release()
	tracker.Start(context.Background())

	report, err := solver.Importance(ctx, rand.New(rand.NewSource(2)), target, sources, base)
	if report != nil || !model.IsSuperseded(err) {
		t.Errorf("expected no report and a superseded error, got %v, %v", report, err)
	}
}
