// Package mixture estimates a target profile as a convex combination of
// source profiles.
//
// The solver distributes a fixed number of slots over the sources and runs a
// stochastic local search: every slot in turn proposes a different random
// source and the move is kept only when it strictly reduces the squared
// distance between the mixed profile and the target. Weights are slot counts
// divided by the number of slots, so they are non-negative and sum to one.
package mixture

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/YuminosukeSato/scimix/core/linalg"
	"github.com/YuminosukeSato/scimix/core/model"
	"github.com/YuminosukeSato/scimix/metrics"
	"github.com/YuminosukeSato/scimix/pkg/errors"
	"github.com/YuminosukeSato/scimix/pkg/log"
	"github.com/YuminosukeSato/scimix/pkg/telemetry"
	"github.com/google/uuid"
)

const modelName = "MixtureSolver"

// Solver runs the slot-based mixture search.
type Solver struct {
	slots            int
	cyclesMultiplier float64
	randomState      int64

	logger   log.Logger
	recorder telemetry.Recorder
	onSweep  func(sweep int, distance float64)
}

// NewSolver creates a Solver with the given options.
func NewSolver(options ...Option) *Solver {
	s := &Solver{
		slots:            DefaultSlots,
		cyclesMultiplier: DefaultCyclesMultiplier,
		randomState:      -1,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.GetLoggerWithName("mixture")
	}
	if s.recorder == nil {
		s.recorder = telemetry.Nop()
	}
	s.logger = s.logger.With(log.ModelNameKey, modelName)
	return s
}

// Slots returns the configured number of slots.
func (s *Solver) Slots() int { return s.slots }

// Solution is the outcome of one solve.
type Solution struct {
	Target string `json:"target"`
	// Weights holds one weight per source, in source order.
	Weights []float64 `json:"weights"`
	// Distance is the Euclidean norm of the unexplained remainder.
	Distance float64 `json:"distance"`
	// Fitted is the reconstructed profile Σ w_i·source_i.
	Fitted []float64 `json:"fitted"`
	// Residual is target − Fitted.
	Residual []float64 `json:"residual"`
	RMSE     float64   `json:"rmse"`
	Sweeps   int       `json:"sweeps"`
	Accepted int       `json:"accepted"`
	RunID    string    `json:"run_id"`
}

// NewRand returns a generator seeded with seed, or with the current time
// when seed is negative.
func NewRand(seed int64) *rand.Rand {
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// Solve finds mixture weights of sources that best reproduce target.
//
// rng drives every random choice; when nil a generator is created from the
// configured random state. If ctx is cancelled (for example because a newer
// job was started) Solve returns nil and an error matching
// errors.ErrSuperseded.
func (s *Solver) Solve(ctx context.Context, rng *rand.Rand, target model.Row, sources []model.Row) (*Solution, error) {
	if err := s.validate(target, sources); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = NewRand(s.randomState)
	}

	start := time.Now()
	runID := uuid.NewString()
	logger := s.logger.With(log.EstimatorIDKey, runID)
	if job, ok := model.JobFromContext(ctx); ok {
		logger = logger.With(log.JobIDKey, job.ID)
	}
	logger.Debug("Solve started",
		log.OperationKey, log.OperationSolve,
		log.TargetNameKey, target.Name,
		log.SamplesKey, len(sources),
		log.FeaturesKey, len(target.Vector),
		log.SlotsKey, s.slots,
		log.CyclesKey, s.cyclesMultiplier,
	)

	tScaled, sScaled := s.scale(target, sources)
	raw, err := s.solveScaled(ctx, rng, tScaled, sScaled, nil)
	if err != nil {
		if model.IsSuperseded(err) {
			s.recorder.IncSuperseded(telemetry.EngineMixture)
			logger.Debug("Solve superseded", log.ErrorCodeKey, log.ErrorSuperseded)
		}
		return nil, err
	}
	s.recorder.ObserveDuration(telemetry.EngineMixture, time.Since(start))

	sol, err := s.buildSolution(target, sources, raw)
	if err != nil {
		return nil, err
	}
	sol.RunID = runID

	logger.Info("Solve finished",
		log.OperationKey, log.OperationSolve,
		log.TargetNameKey, target.Name,
		log.LossKey, sol.Distance,
		log.IterationKey, sol.Sweeps,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return sol, nil
}

func (s *Solver) validate(target model.Row, sources []model.Row) error {
	if len(sources) == 0 {
		return errors.NewValueError("Solve", "no source rows")
	}
	if s.slots < 1 {
		return errors.NewValidationError("slots", "must be >= 1", s.slots)
	}
	if !(s.cyclesMultiplier > 0) {
		return errors.NewValidationError("cycles", "must be > 0", s.cyclesMultiplier)
	}
	if err := errors.CheckNumericalStability("Solve.target", target.Vector, 0); err != nil {
		return errors.Wrapf(err, "target %q", target.Name)
	}
	d := len(target.Vector)
	for i, src := range sources {
		if len(src.Vector) != d {
			return errors.Wrapf(errors.NewDimensionError("Solve", d, len(src.Vector), 1), "source %q", src.Name)
		}
		if err := errors.CheckNumericalStability("Solve.source", src.Vector, i); err != nil {
			return errors.Wrapf(err, "source %q", src.Name)
		}
	}
	return nil
}

// scale divides the target and every source by the number of slots.
func (s *Solver) scale(target model.Row, sources []model.Row) ([]float64, [][]float64) {
	slots := float64(s.slots)
	tScaled := linalg.Scaled(target.Vector, slots)
	sScaled := make([][]float64, len(sources))
	for i, src := range sources {
		sScaled[i] = linalg.Scaled(src.Vector, slots)
	}
	return tScaled, sScaled
}

// rawSolution is the search state after the last sweep.
type rawSolution struct {
	counts   []int
	dist     float64
	sweeps   int
	accepted int
}

func (r *rawSolution) weights(slots int) []float64 {
	w := make([]float64, len(r.counts))
	for i, c := range r.counts {
		w[i] = float64(c) / float64(slots)
	}
	return w
}

func (r *rawSolution) distance() float64 { return math.Sqrt(r.dist) }

// cycles returns the number of sweeps for n sources.
func (s *Solver) cycles(n int) int {
	c := int(math.Ceil(float64(n) * s.cyclesMultiplier / 4))
	if c < 1 {
		c = 1
	}
	return c
}

// solveScaled runs the local search on pre-scaled vectors. candidates lists
// the source indices slots may take; nil means every source.
func (s *Solver) solveScaled(ctx context.Context, rng *rand.Rand, tScaled []float64, sScaled [][]float64, candidates []int) (*rawSolution, error) {
	n := len(sScaled)
	if n == 0 {
		return nil, errors.NewValueError("Solve", "no source rows")
	}
	if candidates == nil {
		candidates = make([]int, n)
		for i := range candidates {
			candidates[i] = i
		}
	}
	m := len(candidates)
	if m == 0 {
		return nil, errors.NewValueError("Solve", "empty candidate pool")
	}
	dim := len(tScaled)

	// residual of each source against the target
	diffs := make([][]float64, n)
	for i, src := range sScaled {
		d := make([]float64, dim)
		for j := range d {
			d[j] = src[j] - tScaled[j]
		}
		diffs[i] = d
	}

	slots := make([]int, s.slots)
	point := make([]float64, dim)
	for k := range slots {
		slots[k] = candidates[rng.Intn(m)]
		d := diffs[slots[k]]
		for j := 0; j < dim; j++ {
			point[j] += d[j]
		}
	}
	dist := 0.0
	for j := 0; j < dim; j++ {
		dist += point[j] * point[j]
	}

	cycles := s.cycles(n)
	accepted := 0
	for c := 0; c < cycles; c++ {
		for k := range slots {
			oldIdx := slots[k]
			newIdx := candidates[rng.Intn(m)]
			if m > 1 {
				for newIdx == oldIdx {
					newIdx = candidates[rng.Intn(m)]
				}
			}

			oldVec, newVec := diffs[oldIdx], diffs[newIdx]
			newDist := 0.0
			for j := 0; j < dim; j++ {
				v := point[j] - oldVec[j] + newVec[j]
				newDist += v * v
			}

			if newDist < dist {
				for j := 0; j < dim; j++ {
					point[j] = point[j] - oldVec[j] + newVec[j]
				}
				dist = newDist
				slots[k] = newIdx
				accepted++
			}
		}

		s.recorder.AddSweeps(1)
		if s.onSweep != nil {
			s.onSweep(c+1, math.Sqrt(dist))
		}
		if err := model.Checkpoint(ctx); err != nil {
			s.recorder.AddAcceptedMoves(accepted)
			return nil, err
		}
	}
	s.recorder.AddAcceptedMoves(accepted)

	counts := make([]int, n)
	for _, idx := range slots {
		counts[idx]++
	}
	return &rawSolution{counts: counts, dist: dist, sweeps: cycles, accepted: accepted}, nil
}

func (s *Solver) buildSolution(target model.Row, sources []model.Row, raw *rawSolution) (*Solution, error) {
	weights := raw.weights(s.slots)
	dim := len(target.Vector)

	fitted := make([]float64, dim)
	for i, w := range weights {
		if w == 0 {
			continue
		}
		for j, v := range sources[i].Vector {
			fitted[j] += w * v
		}
	}
	residual := make([]float64, dim)
	for j := range residual {
		residual[j] = target.Vector[j] - fitted[j]
	}
	rmse, err := metrics.RMSE(target.Vector, fitted)
	if err != nil {
		return nil, err
	}

	return &Solution{
		Target:   target.Name,
		Weights:  weights,
		Distance: raw.distance(),
		Fitted:   fitted,
		Residual: residual,
		RMSE:     rmse,
		Sweeps:   raw.sweeps,
		Accepted: raw.accepted,
	}, nil
}
