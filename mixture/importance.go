package mixture

import (
	"context"
	"math/rand"
	"time"

	"github.com/YuminosukeSato/scimix/core/model"
	"github.com/YuminosukeSato/scimix/pkg/errors"
	"github.com/YuminosukeSato/scimix/pkg/log"
	"github.com/YuminosukeSato/scimix/pkg/telemetry"
)

// ImportanceReport holds the permutation importance of every source.
type ImportanceReport struct {
	// Delta is the mean increase of the residual distance when the source's
	// components are shuffled. Zero for sources that were not evaluated.
	Delta []float64 `json:"delta"`
	// Evaluated marks the sources that were actually evaluated.
	Evaluated    []bool `json:"evaluated"`
	Permutations int    `json:"permutations"`
}

// lcg is the deterministic generator used to shuffle source components.
// It reproduces the same permutations for the same source index.
type lcg struct {
	state uint32
}

func newLCG(seed uint32) *lcg { return &lcg{state: seed} }

// Float64 returns a value in [0, 1).
func (g *lcg) Float64() float64 {
	g.state = 1664525*g.state + 1013904223
	return float64(g.state) / 4294967296
}

// shuffleSeed returns the generator seed for source i.
func shuffleSeed(i int) uint32 {
	return uint32(123456789 + 97*i)
}

// permute returns a Fisher-Yates shuffle of v drawn from g.
func permute(v []float64, g *lcg) []float64 {
	a := make([]float64, len(v))
	copy(a, v)
	for i := len(a) - 1; i > 0; i-- {
		j := int(g.Float64() * float64(i+1))
		a[i], a[j] = a[j], a[i]
	}
	return a
}

// Importance estimates how much each source contributes to the solution base.
//
// For every evaluated source the source's components are shuffled, the full
// search is rerun and the increase of the residual distance over
// base.Distance is averaged over the permutations. The reruns draw from rng
// (created from the configured random state when nil); the shuffles use a
// fixed per-source generator.
//
// A superseded job returns nil and an error matching errors.ErrSuperseded.
func (s *Solver) Importance(ctx context.Context, rng *rand.Rand, target model.Row, sources []model.Row, base *Solution, options ...ImportanceOption) (*ImportanceReport, error) {
	cfg := importanceConfig{permutations: DefaultPermutations}
	for _, opt := range options {
		opt(&cfg)
	}

	if err := s.validate(target, sources); err != nil {
		return nil, err
	}
	if base == nil || len(base.Weights) != len(sources) {
		return nil, errors.NewValueError("Importance", "base solution does not match the source rows")
	}
	if cfg.permutations < 1 {
		return nil, errors.NewValidationError("permutations", "must be >= 1", cfg.permutations)
	}
	if cfg.allowed != nil && len(cfg.allowed) != len(sources) {
		return nil, errors.NewDimensionError("Importance.allowed", len(sources), len(cfg.allowed), 0)
	}
	if rng == nil {
		rng = NewRand(s.randomState)
	}

	var candidates []int
	if cfg.allowed != nil {
		candidates = make([]int, 0, len(sources))
		for i, ok := range cfg.allowed {
			if ok {
				candidates = append(candidates, i)
			}
		}
		if len(candidates) == 0 {
			return nil, errors.NewValueError("Importance", "allowed mask excludes every source")
		}
	}

	start := time.Now()
	logger := s.logger.With(log.OperationKey, log.OperationImportance)
	logger.Debug("Importance started",
		log.TargetNameKey, target.Name,
		log.PermutationsKey, cfg.permutations,
		"used_only", cfg.usedOnly,
	)

	tScaled, sScaled := s.scale(target, sources)
	n := len(sources)
	report := &ImportanceReport{
		Delta:        make([]float64, n),
		Evaluated:    make([]bool, n),
		Permutations: cfg.permutations,
	}

	for i := 0; i < n; i++ {
		if cfg.usedOnly && !(base.Weights[i] > UsedWeightThreshold) {
			continue
		}

		g := newLCG(shuffleSeed(i))
		sum := 0.0
		for p := 0; p < cfg.permutations; p++ {
			perturbed := make([][]float64, n)
			copy(perturbed, sScaled)
			perturbed[i] = permute(sScaled[i], g)

			raw, err := s.solveScaled(ctx, rng, tScaled, perturbed, candidates)
			if err != nil {
				return nil, s.abandon(logger, err)
			}
			sum += raw.distance() - base.Distance

			if p%2 == 1 {
				if err := model.Checkpoint(ctx); err != nil {
					return nil, s.abandon(logger, err)
				}
			}
		}
		report.Delta[i] = sum / float64(cfg.permutations)
		report.Evaluated[i] = true

		if err := model.Checkpoint(ctx); err != nil {
			return nil, s.abandon(logger, err)
		}
	}

	s.recorder.ObserveDuration(telemetry.EngineImportance, time.Since(start))
	logger.Info("Importance finished",
		log.TargetNameKey, target.Name,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return report, nil
}

func (s *Solver) abandon(logger log.Logger, err error) error {
	if model.IsSuperseded(err) {
		s.recorder.IncSuperseded(telemetry.EngineImportance)
		logger.Debug("Importance superseded", log.ErrorCodeKey, log.ErrorSuperseded)
	}
	return err
}
