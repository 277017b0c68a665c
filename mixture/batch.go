package mixture

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/YuminosukeSato/scimix/core/model"
	"github.com/YuminosukeSato/scimix/core/parallel"
	"github.com/YuminosukeSato/scimix/pkg/errors"
	"github.com/YuminosukeSato/scimix/pkg/log"
)

// BatchOptions controls SolveAll.
type BatchOptions struct {
	// Aggregate sums the weight columns per aggregation key.
	Aggregate bool
	// Workers bounds the number of concurrent solves (<= 0: one per CPU).
	Workers int
}

// BatchResult summarises the solves of every target.
type BatchResult struct {
	Targets   []string    `json:"targets"`
	Distances []float64   `json:"distances"`
	Solutions []*Solution `json:"solutions"`
	// Columns names the columns of Matrix (source names or aggregation keys).
	Columns []string `json:"columns"`
	// Matrix holds one weight row per target.
	Matrix [][]float64 `json:"matrix"`
	// Average is the mean weight of every column over the targets.
	Average []float64 `json:"average"`
	// ColumnOrder lists column indices by descending average weight.
	ColumnOrder     []int   `json:"column_order"`
	AverageDistance float64 `json:"average_distance"`
}

// SolveAll solves every target against the same sources.
//
// Solves run concurrently. Each target draws from its own generator whose
// seed is taken from a generator seeded with the solver's random state, so
// the result does not depend on scheduling. A superseded job returns nil and
// an error matching errors.ErrSuperseded.
func (s *Solver) SolveAll(ctx context.Context, targets, sources []model.Row, opts BatchOptions) (*BatchResult, error) {
	if len(targets) == 0 {
		return nil, errors.NewValueError("SolveAll", "no target rows")
	}
	for _, t := range targets {
		if err := s.validate(t, sources); err != nil {
			return nil, err
		}
	}

	seeder := NewRand(s.randomState)
	rngs := make([]*rand.Rand, len(targets))
	for i := range rngs {
		rngs[i] = rand.New(rand.NewSource(seeder.Int63()))
	}

	start := time.Now()
	solutions := make([]*Solution, len(targets))
	err := parallel.ForEach(ctx, len(targets), opts.Workers, func(ctx context.Context, i int) error {
		sol, err := s.Solve(ctx, rngs[i], targets[i], sources)
		if err != nil {
			return err
		}
		solutions[i] = sol
		return nil
	})
	if err != nil {
		if cerr := model.Checkpoint(ctx); cerr != nil {
			return nil, cerr
		}
		return nil, err
	}

	names := make([]string, len(sources))
	for i, src := range sources {
		names[i] = src.Name
	}
	res := summarise(targets, names, solutions, opts.Aggregate)

	s.logger.Info("SolveAll finished",
		log.OperationKey, log.OperationSolve,
		log.TargetsKey, len(targets),
		log.SamplesKey, len(sources),
		log.LossKey, res.AverageDistance,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return res, nil
}

func summarise(targets []model.Row, names []string, solutions []*Solution, aggregate bool) *BatchResult {
	res := &BatchResult{
		Targets:   make([]string, len(targets)),
		Distances: make([]float64, len(targets)),
		Solutions: solutions,
		Matrix:    make([][]float64, len(targets)),
	}

	res.Columns = names
	var groups []model.Group
	if aggregate {
		groups = model.GroupByKey(names)
		res.Columns = make([]string, len(groups))
		for g, group := range groups {
			res.Columns[g] = group.Key
		}
	}

	for t, sol := range solutions {
		res.Targets[t] = targets[t].Name
		res.Distances[t] = sol.Distance
		if !aggregate {
			res.Matrix[t] = append([]float64(nil), sol.Weights...)
			continue
		}
		row := make([]float64, len(groups))
		for g, group := range groups {
			for _, m := range group.Members {
				row[g] += sol.Weights[m]
			}
		}
		res.Matrix[t] = row
	}

	nCols := len(res.Columns)
	res.Average = make([]float64, nCols)
	for _, row := range res.Matrix {
		for i, v := range row {
			res.Average[i] += v
		}
	}
	for i := range res.Average {
		res.Average[i] /= float64(len(res.Matrix))
	}

	res.ColumnOrder = make([]int, nCols)
	for i := range res.ColumnOrder {
		res.ColumnOrder[i] = i
	}
	sort.SliceStable(res.ColumnOrder, func(a, b int) bool {
		return res.Average[res.ColumnOrder[a]] > res.Average[res.ColumnOrder[b]]
	})

	sum := 0.0
	for _, d := range res.Distances {
		sum += d
	}
	res.AverageDistance = sum / float64(len(res.Distances))
	return res
}
