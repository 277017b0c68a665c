package mixture

import (
	"github.com/YuminosukeSato/scimix/pkg/log"
	"github.com/YuminosukeSato/scimix/pkg/telemetry"
)

// Default solver settings.
const (
	DefaultSlots            = 10000
	DefaultCyclesMultiplier = 6000
	DefaultPermutations     = 3

	// UsedWeightThreshold is the weight above which a source counts as used.
	UsedWeightThreshold = 1e-6
)

// Option configures a Solver.
type Option func(*Solver)

// WithSlots sets the number of slots. The weight resolution is 1/slots.
func WithSlots(slots int) Option {
	return func(s *Solver) {
		s.slots = slots
	}
}

// WithCyclesMultiplier sets the sweep budget multiplier. A solve over n
// sources runs max(1, ceil(n·m/4)) sweeps.
func WithCyclesMultiplier(m float64) Option {
	return func(s *Solver) {
		s.cyclesMultiplier = m
	}
}

// WithRandomState seeds the generator used when Solve is called without one.
// A negative seed uses the current time.
func WithRandomState(seed int64) Option {
	return func(s *Solver) {
		s.randomState = seed
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(s *Solver) {
		s.logger = logger
	}
}

// WithRecorder sets the telemetry recorder.
func WithRecorder(r telemetry.Recorder) Option {
	return func(s *Solver) {
		s.recorder = r
	}
}

// WithSweepCallback registers fn to be called after every completed sweep
// with the 1-based sweep number and the current residual distance.
// SolveAll may call fn from several goroutines at once.
func WithSweepCallback(fn func(sweep int, distance float64)) Option {
	return func(s *Solver) {
		s.onSweep = fn
	}
}

// ImportanceOption configures a permutation importance run.
type ImportanceOption func(*importanceConfig)

type importanceConfig struct {
	permutations int
	usedOnly     bool
	allowed      []bool
}

// WithPermutations sets the number of shuffles per evaluated source.
func WithPermutations(n int) ImportanceOption {
	return func(c *importanceConfig) {
		c.permutations = n
	}
}

// WithUsedOnly restricts evaluation to sources whose base weight exceeds
// UsedWeightThreshold.
func WithUsedOnly(usedOnly bool) ImportanceOption {
	return func(c *importanceConfig) {
		c.usedOnly = usedOnly
	}
}

// UsedMask marks the sources whose weight exceeds UsedWeightThreshold.
// It is meant for WithAllowed when reruns may only draw on the sources the
// base solution already uses.
func UsedMask(weights []float64) []bool {
	mask := make([]bool, len(weights))
	for i, w := range weights {
		mask[i] = w > UsedWeightThreshold
	}
	return mask
}

// WithAllowed restricts the candidate pool of every rerun to the sources
// with allowed[i] == true. It does not change which sources are evaluated.
func WithAllowed(allowed []bool) ImportanceOption {
	return func(c *importanceConfig) {
		c.allowed = allowed
	}
}
