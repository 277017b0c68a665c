package mixture

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/YuminosukeSato/scimix/core/model"
	"github.com/YuminosukeSato/scimix/pkg/errors"
	"github.com/YuminosukeSato/scimix/pkg/log"
)

// countingRecorder counts telemetry events.
type countingRecorder struct {
	mu         sync.Mutex
	sweeps     int
	accepted   int
	superseded int
}

func (r *countingRecorder) ObserveDuration(string, time.Duration) {}
func (r *countingRecorder) AddEMIterations(int)                   {}
func (r *countingRecorder) ObserveFit(bool)                       {}

func (r *countingRecorder) AddSweeps(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweeps += n
}

func (r *countingRecorder) AddAcceptedMoves(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accepted += n
}

func (r *countingRecorder) IncSuperseded(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.superseded++
}

func TestSolveMidpoint(t *testing.T) {
	sources := []model.Row{
		{Name: "A", Vector: []float64{0, 0}},
		{Name: "B", Vector: []float64{10, 10}},
	}
	target := model.Row{Name: "T", Vector: []float64{5, 5}}

	solver := NewSolver(WithSlots(1000), WithCyclesMultiplier(20))
	sol, err := solver.Solve(context.Background(), rand.New(rand.NewSource(1)), target, sources)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	if math.Abs(sol.Weights[0]-0.5) > 1e-9 || math.Abs(sol.Weights[1]-0.5) > 1e-9 {
		t.Errorf("weights = %v, want [0.5 0.5]", sol.Weights)
	}
	if sol.Distance > 1e-9 {
		t.Errorf("distance = %v, want ~0", sol.Distance)
	}
	if sol.RMSE > 1e-9 {
		t.Errorf("RMSE = %v, want ~0", sol.RMSE)
	}
	for j, v := range sol.Fitted {
		if math.Abs(v-5) > 1e-9 {
			t.Errorf("Fitted[%d] = %v, want 5", j, v)
		}
	}
	if sol.RunID == "" {
		t.Error("RunID should be set")
	}
	// cycles = ceil(2*20/4)
	if sol.Sweeps != 10 {
		t.Errorf("Sweeps = %d, want 10", sol.Sweeps)
	}
}

func randomRows(rng *rand.Rand, prefix string, n, d int) []model.Row {
	rows := make([]model.Row, n)
	for i := range rows {
		v := make([]float64, d)
		for j := range v {
			v[j] = rng.Float64()
		}
		rows[i] = model.Row{Name: prefix + string(rune('a'+i)), Vector: v}
	}
	return rows
}

func TestSolveWeightsAndMonotoneDistance(t *testing.T) {
	data := rand.New(rand.NewSource(42))
	sources := randomRows(data, "s", 6, 4)
	target := randomRows(data, "t", 1, 4)[0]

	var dists []float64
	rec := &countingRecorder{}
	solver := NewSolver(
		WithSlots(500),
		WithCyclesMultiplier(8),
		WithRecorder(rec),
		WithSweepCallback(func(sweep int, d float64) {
			if sweep != len(dists)+1 {
				t.Errorf("sweep numbers out of order: %d", sweep)
			}
			dists = append(dists, d)
		}),
	)

	sol, err := solver.Solve(context.Background(), rand.New(rand.NewSource(3)), target, sources)
	if err != nil {
		t.Fatal(err)
	}

	sum := 0.0
	for _, w := range sol.Weights {
		if w < 0 {
			t.Errorf("negative weight %v", w)
		}
		sum += w
	}
	if math.Abs(sum-1) > 1.0/500 {
		t.Errorf("weights sum to %v, want 1", sum)
	}

	if len(dists) != sol.Sweeps {
		t.Fatalf("callback ran %d times, want %d", len(dists), sol.Sweeps)
	}
	for i := 1; i < len(dists); i++ {
		if dists[i] > dists[i-1] {
			t.Errorf("distance increased at sweep %d: %v > %v", i+1, dists[i], dists[i-1])
		}
	}
	if math.Abs(dists[len(dists)-1]-sol.Distance) > 1e-12 {
		t.Errorf("last sweep distance %v != solution distance %v", dists[len(dists)-1], sol.Distance)
	}
	if rec.sweeps != sol.Sweeps || rec.accepted != sol.Accepted {
		t.Errorf("recorder sweeps=%d accepted=%d, solution sweeps=%d accepted=%d",
			rec.sweeps, rec.accepted, sol.Sweeps, sol.Accepted)
	}
}

func TestSolveReproducible(t *testing.T) {
	data := rand.New(rand.NewSource(9))
	sources := randomRows(data, "s", 5, 3)
	target := randomRows(data, "t", 1, 3)[0]
	solver := NewSolver(WithSlots(200), WithCyclesMultiplier(4), WithRandomState(11))

	a, err := solver.Solve(context.Background(), nil, target, sources)
	if err != nil {
		t.Fatal(err)
	}
	b, err := solver.Solve(context.Background(), nil, target, sources)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Weights {
		if a.Weights[i] != b.Weights[i] {
			t.Fatalf("weights differ with the same random state: %v vs %v", a.Weights, b.Weights)
		}
	}
}

func TestSolveSingleSource(t *testing.T) {
	sources := []model.Row{{Name: "only", Vector: []float64{1, 2}}}
	target := model.Row{Name: "T", Vector: []float64{3, 4}}

	sol, err := NewSolver(WithSlots(100), WithCyclesMultiplier(1)).
		Solve(context.Background(), rand.New(rand.NewSource(1)), target, sources)
	if err != nil {
		t.Fatal(err)
	}
	if sol.Weights[0] != 1 {
		t.Errorf("single source weight = %v, want 1", sol.Weights[0])
	}
	if want := math.Sqrt(8); math.Abs(sol.Distance-want) > 1e-9 {
		t.Errorf("distance = %v, want %v", sol.Distance, want)
	}
	if sol.Accepted != 0 {
		t.Errorf("no move can improve a single source, accepted = %d", sol.Accepted)
	}
}

func TestSolveInvalidInput(t *testing.T) {
	target := model.Row{Name: "T", Vector: []float64{1, 2}}
	tests := []struct {
		name    string
		solver  *Solver
		sources []model.Row
	}{
		{"no sources", NewSolver(), nil},
		{"dimension mismatch", NewSolver(), []model.Row{{Name: "a", Vector: []float64{1, 2, 3}}}},
		{"zero slots", NewSolver(WithSlots(0)), []model.Row{{Name: "a", Vector: []float64{1, 2}}}},
		{"zero cycles", NewSolver(WithCyclesMultiplier(0)), []model.Row{{Name: "a", Vector: []float64{1, 2}}}},
		{"NaN source", NewSolver(), []model.Row{{Name: "a", Vector: []float64{0, 0}}, {Name: "b", Vector: []float64{math.NaN(), 1}}}},
		{"Inf source", NewSolver(), []model.Row{{Name: "a", Vector: []float64{math.Inf(1), 0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sol, err := tt.solver.Solve(context.Background(), nil, target, tt.sources)
			if sol != nil || !errors.IsInvalidInput(err) {
				t.Errorf("expected invalid input, got %v, %v", sol, err)
			}
		})
	}
}

func TestSolveNonFiniteTarget(t *testing.T) {
	sources := []model.Row{
		{Name: "a", Vector: []float64{0, 0}},
		{Name: "b", Vector: []float64{1, 1}},
	}
	target := model.Row{Name: "t", Vector: []float64{math.NaN(), 1}}
	solver := NewSolver(WithSlots(10))

	sol, err := solver.Solve(context.Background(), rand.New(rand.NewSource(1)), target, sources)
	if sol != nil || !errors.IsInvalidInput(err) {
		t.Errorf("Solve: expected invalid input, got %v, %v", sol, err)
	}
	report, err := solver.Importance(context.Background(), nil, target, sources, nil)
	if report != nil || !errors.IsInvalidInput(err) {
		t.Errorf("Importance: expected invalid input, got %v, %v", report, err)
	}
}

func TestSolveSuperseded(t *testing.T) {
	tracker := model.NewJobTracker()
	ctx1, job1 := tracker.Start(context.Background())
	defer job1.Release()
	_, job2 := tracker.Start(context.Background())
	defer job2.Release()

	rec := &countingRecorder{}
	sources := []model.Row{
		{Name: "A", Vector: []float64{0, 0}},
		{Name: "B", Vector: []float64{10, 10}},
	}
	sol, err := NewSolver(WithSlots(100), WithCyclesMultiplier(40), WithRecorder(rec)).
		Solve(ctx1, rand.New(rand.NewSource(1)), model.Row{Name: "T", Vector: []float64{5, 5}}, sources)

	if sol != nil {
		t.Error("superseded solve must not return a partial result")
	}
	if !model.IsSuperseded(err) {
		t.Fatalf("expected superseded error, got %v", err)
	}
	if rec.superseded != 1 {
		t.Errorf("superseded counter = %d, want 1", rec.superseded)
	}
	if rec.sweeps != 1 {
		t.Errorf("search should stop at the first checkpoint, ran %d sweeps", rec.sweeps)
	}
}

func TestSolveCancelledNotSuperseded(t *testing.T) {
	boom := errors.New("sibling failed")
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(boom)

	rec := &countingRecorder{}
	sources := []model.Row{
		{Name: "A", Vector: []float64{0, 0}},
		{Name: "B", Vector: []float64{10, 10}},
	}
	sol, err := NewSolver(WithSlots(100), WithCyclesMultiplier(40), WithRecorder(rec)).
		Solve(ctx, rand.New(rand.NewSource(1)), model.Row{Name: "T", Vector: []float64{5, 5}}, sources)

	if sol != nil || !errors.Is(err, boom) {
		t.Fatalf("expected the cancellation cause, got %v, %v", sol, err)
	}
	if model.IsSuperseded(err) {
		t.Error("a plain cancellation must not be reported as superseded")
	}
	if rec.superseded != 0 {
		t.Errorf("superseded counter = %d, want 0", rec.superseded)
	}
}

func TestSolveLogsRun(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	sources := []model.Row{
		{Name: "A", Vector: []float64{0, 0}},
		{Name: "B", Vector: []float64{10, 10}},
	}
	tracker := model.NewJobTracker()
	ctx, job := tracker.Start(context.Background())
	defer job.Release()

	_, err := NewSolver(WithSlots(100), WithCyclesMultiplier(4), WithLogger(logger)).
		Solve(ctx, rand.New(rand.NewSource(1)), model.Row{Name: "T", Vector: []float64{5, 5}}, sources)
	if err != nil {
		t.Fatal(err)
	}
	if !logger.ContainsMessage("Solve finished") {
		t.Error("expected finish record")
	}
	if !logger.ContainsField(log.ModelNameKey, modelName) {
		t.Error("expected model name field")
	}
	if !logger.ContainsField(log.JobIDKey, float64(job.ID)) {
		t.Error("expected job id field")
	}
}

func BenchmarkSolve(b *testing.B) {
	data := rand.New(rand.NewSource(1))
	sources := randomRows(data, "s", 20, 25)
	target := randomRows(data, "t", 1, 25)[0]
	solver := NewSolver(WithSlots(1000), WithCyclesMultiplier(20))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = solver.Solve(context.Background(), rand.New(rand.NewSource(int64(i))), target, sources)
	}
}
