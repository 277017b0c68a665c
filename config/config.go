// Package config loads the YAML configuration of the scimix engines and turns
// each section into the functional options of its engine.
package config

import (
	"os"
	"strings"

	"github.com/YuminosukeSato/scimix/distance"
	"github.com/YuminosukeSato/scimix/mixture"
	"github.com/YuminosukeSato/scimix/pkg/errors"
	"github.com/YuminosukeSato/scimix/pkg/log"
	"github.com/YuminosukeSato/scimix/preprocessing"
	gmm "github.com/YuminosukeSato/scimix/sklearn/mixture"
	"gopkg.in/yaml.v3"
)

// Accepted ranges of the mixture solver knobs.
const (
	MinSlots   = 100
	MaxSlots   = 100000
	MinCycles  = 100
	MaxCycles  = 100000
	MinGMMIter = 5
)

// Candidate pools of the importance reruns.
const (
	// ImportancePoolAll lets every rerun draw on all sources.
	ImportancePoolAll = "all"
	// ImportancePoolUsed limits reruns to the sources used by the base solution.
	ImportancePoolUsed = "used"
)

// Config is the root of the configuration file.
type Config struct {
	Distance DistanceConfig `yaml:"distance" json:"distance"`
	Mixture  MixtureConfig  `yaml:"mixture" json:"mixture"`
	GMM      GMMConfig      `yaml:"gmm" json:"gmm"`
	Log      LogConfig      `yaml:"log" json:"log"`
}

// DistanceConfig configures the distance ranker.
type DistanceConfig struct {
	Aggregate bool   `yaml:"aggregate" json:"aggregate"`
	TopN      int    `yaml:"top_n" json:"top_n"`
	Metric    string `yaml:"metric" json:"metric"`
}

// MixtureConfig configures the mixture solver.
type MixtureConfig struct {
	Slots       int              `yaml:"slots" json:"slots"`
	Cycles      int              `yaml:"cycles" json:"cycles"`
	Aggregate   bool             `yaml:"aggregate" json:"aggregate"`
	PrintZeroes bool             `yaml:"print_zeroes" json:"print_zeroes"`
	RandomState int64            `yaml:"random_state" json:"random_state"`
	Workers     int              `yaml:"workers" json:"workers"`
	Importance  ImportanceConfig `yaml:"importance" json:"importance"`
}

// ImportanceConfig configures permutation importance.
type ImportanceConfig struct {
	Enabled      bool `yaml:"enabled" json:"enabled"`
	Permutations int  `yaml:"permutations" json:"permutations"`
	UsedOnly     bool `yaml:"used_only" json:"used_only"`
	// Pool selects the candidate pool of the reruns: "all" or "used".
	Pool string `yaml:"pool" json:"pool"`
}

// GMMConfig configures the Bayesian Gaussian mixture.
type GMMConfig struct {
	K                 int     `yaml:"k" json:"k"`
	MinK              int     `yaml:"min_k" json:"min_k"`
	MaxK              int     `yaml:"max_k" json:"max_k"`
	Criterion         string  `yaml:"criterion" json:"criterion"`
	CovarianceType    string  `yaml:"covariance_type" json:"covariance_type"`
	MaxIter           int     `yaml:"max_iter" json:"max_iter"`
	Tol               float64 `yaml:"tol" json:"tol"`
	WeightPrior       float64 `yaml:"weight_prior" json:"weight_prior"`
	MeanPriorStrength float64 `yaml:"mean_prior_strength" json:"mean_prior_strength"`
	CovPriorScale     float64 `yaml:"cov_prior_scale" json:"cov_prior_scale"`
	CovPriorDf        float64 `yaml:"cov_prior_df" json:"cov_prior_df"`
	VarianceFloor     float64 `yaml:"variance_floor" json:"variance_floor"`
	InitParams        string  `yaml:"init_params" json:"init_params"`
	RandomState       int64   `yaml:"random_state" json:"random_state"`
	// Scale names the scaler applied to the pooled points before fitting.
	Scale string `yaml:"scale" json:"scale"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Distance: DistanceConfig{
			TopN:   25,
			Metric: string(distance.Euclidean),
		},
		Mixture: MixtureConfig{
			Slots:       mixture.DefaultSlots,
			Cycles:      mixture.DefaultCyclesMultiplier,
			RandomState: -1,
			Importance: ImportanceConfig{
				Permutations: mixture.DefaultPermutations,
				UsedOnly:     true,
				Pool:         ImportancePoolAll,
			},
		},
		GMM: GMMConfig{
			K:                 gmm.DefaultNComponents,
			MinK:              gmm.DefaultMinK,
			MaxK:              gmm.DefaultMaxK,
			Criterion:         gmm.CriterionNone,
			CovarianceType:    gmm.CovarianceDiag,
			MaxIter:           gmm.DefaultMaxIter,
			Tol:               gmm.DefaultTol,
			WeightPrior:       gmm.DefaultWeightPrior,
			MeanPriorStrength: gmm.DefaultMeanPriorStrength,
			CovPriorScale:     gmm.DefaultCovPriorScale,
			CovPriorDf:        gmm.DefaultCovPriorDf,
			VarianceFloor:     gmm.DefaultVarianceFloor,
			InitParams:        gmm.InitKMeansPlusPlus,
			RandomState:       -1,
			Scale:             preprocessing.ScalerNone,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the YAML file at path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "marshal config")
	}
	return out, nil
}

// Validate reports the first out-of-range setting as a ValidationError.
func (c *Config) Validate() error {
	d := c.Distance
	if d.TopN < 1 {
		return errors.NewValidationError("distance.top_n", "must be >= 1", d.TopN)
	}
	if d.Metric != string(distance.Euclidean) && d.Metric != string(distance.Cosine) {
		return errors.NewValidationError("distance.metric", "must be 'euclidean' or 'cosine'", d.Metric)
	}

	m := c.Mixture
	if m.Slots < MinSlots || m.Slots > MaxSlots {
		return errors.NewValidationError("mixture.slots", "must be in [100, 100000]", m.Slots)
	}
	if m.Cycles < MinCycles || m.Cycles > MaxCycles {
		return errors.NewValidationError("mixture.cycles", "must be in [100, 100000]", m.Cycles)
	}
	if m.Workers < 0 {
		return errors.NewValidationError("mixture.workers", "must be >= 0", m.Workers)
	}
	if m.Importance.Permutations < 1 {
		return errors.NewValidationError("mixture.importance.permutations", "must be >= 1", m.Importance.Permutations)
	}
	if p := m.Importance.Pool; p != ImportancePoolAll && p != ImportancePoolUsed {
		return errors.NewValidationError("mixture.importance.pool", "must be 'all' or 'used'", p)
	}

	g := c.GMM
	switch g.Criterion {
	case gmm.CriterionNone:
		if g.K < 1 {
			return errors.NewValidationError("gmm.k", "must be >= 1", g.K)
		}
	case gmm.CriterionAIC, gmm.CriterionBIC:
		if g.MinK < 1 || g.MaxK < 1 {
			return errors.NewValidationError("gmm.min_k", "min_k and max_k must be >= 1", [2]int{g.MinK, g.MaxK})
		}
	default:
		return errors.NewValidationError("gmm.criterion", "must be 'none', 'aic' or 'bic'", g.Criterion)
	}
	if g.CovarianceType != gmm.CovarianceDiag && g.CovarianceType != gmm.CovarianceFull {
		return errors.NewValidationError("gmm.covariance_type", "must be 'diag' or 'full'", g.CovarianceType)
	}
	if g.MaxIter < MinGMMIter {
		return errors.NewValidationError("gmm.max_iter", "must be >= 5", g.MaxIter)
	}
	if !(g.Tol > 0 && g.Tol <= 1) {
		return errors.NewValidationError("gmm.tol", "must be in (0, 1]", g.Tol)
	}
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"gmm.weight_prior", g.WeightPrior},
		{"gmm.mean_prior_strength", g.MeanPriorStrength},
		{"gmm.cov_prior_scale", g.CovPriorScale},
		{"gmm.variance_floor", g.VarianceFloor},
	} {
		if !(p.value > 0) {
			return errors.NewValidationError(p.name, "must be > 0", p.value)
		}
	}
	if !(g.CovPriorDf >= 0) {
		return errors.NewValidationError("gmm.cov_prior_df", "must be >= 0", g.CovPriorDf)
	}
	if g.InitParams != gmm.InitKMeansPlusPlus && g.InitParams != gmm.InitKMeans {
		return errors.NewValidationError("gmm.init_params", "must be 'k-means++' or 'kmeans'", g.InitParams)
	}
	if _, err := preprocessing.NewScaler(g.Scale); err != nil {
		return err
	}

	if _, err := log.ToLogLevel(c.Log.Level); err != nil {
		return err
	}
	if f := strings.ToLower(c.Log.Format); f != "json" && f != "console" {
		return errors.NewValidationError("log.format", "must be 'json' or 'console'", c.Log.Format)
	}
	return nil
}

// DistanceOptions converts the distance section to ranker options.
func (c *Config) DistanceOptions() []distance.Option {
	return []distance.Option{
		distance.WithAggregate(c.Distance.Aggregate),
		distance.WithTopN(c.Distance.TopN),
		distance.WithMetric(distance.Metric(c.Distance.Metric)),
	}
}

// MixtureOptions converts the mixture section to solver options.
func (c *Config) MixtureOptions() []mixture.Option {
	return []mixture.Option{
		mixture.WithSlots(c.Mixture.Slots),
		mixture.WithCyclesMultiplier(float64(c.Mixture.Cycles)),
		mixture.WithRandomState(c.Mixture.RandomState),
	}
}

// ImportanceOptions converts the importance sub-section to importance options.
// With pool "used" the reruns are limited to the sources of base.
func (c *Config) ImportanceOptions(base *mixture.Solution) []mixture.ImportanceOption {
	imp := c.Mixture.Importance
	opts := []mixture.ImportanceOption{
		mixture.WithPermutations(imp.Permutations),
		mixture.WithUsedOnly(imp.UsedOnly),
	}
	if imp.Pool == ImportancePoolUsed && base != nil {
		opts = append(opts, mixture.WithAllowed(mixture.UsedMask(base.Weights)))
	}
	return opts
}

// GMMOptions converts the gmm section to model options. The component count
// is left to the caller, which either uses K or runs a model selection.
func (c *Config) GMMOptions() []gmm.Option {
	g := c.GMM
	return []gmm.Option{
		gmm.WithCovarianceType(g.CovarianceType),
		gmm.WithMaxIter(g.MaxIter),
		gmm.WithTol(g.Tol),
		gmm.WithWeightPrior(g.WeightPrior),
		gmm.WithMeanPriorStrength(g.MeanPriorStrength),
		gmm.WithCovPriorScale(g.CovPriorScale),
		gmm.WithCovPriorDf(g.CovPriorDf),
		gmm.WithVarianceFloor(g.VarianceFloor),
		gmm.WithInitParams(g.InitParams),
		gmm.WithRandomState(g.RandomState),
	}
}
