// Standard attribute keys for scimix log records.
//
// Keys follow a hierarchical naming convention ("model.name", "data.samples")
// so log pipelines can filter by category.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the engine, e.g. "BayesianGaussianMixture".
	ModelNameKey = "model.name"

	// EstimatorIDKey carries the per-run identifier (a UUID) of one engine call.
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is logging.
	ComponentKey = "ml.component"

	// JobIDKey carries the monotonically increasing cancellation job id.
	JobIDKey = "job.id"
)

// Data Shape
const (
	// SamplesKey is the number of rows (sources, points) being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the vector dimensionality D.
	FeaturesKey = "data.features"

	// TargetsKey is the number of target rows.
	TargetsKey = "data.targets"

	// TargetNameKey names the target row an operation works on.
	TargetNameKey = "data.target_name"
)

// Performance and progress
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// IterationKey records the current iteration (EM step, sweep).
	IterationKey = "training.iteration"

	// LossKey records an objective value (residual distance, negative log-likelihood).
	LossKey = "metrics.loss"
)

// Engine specific
const (
	SlotsKey          = "mixture.slots"
	CyclesKey         = "mixture.cycles"
	PermutationsKey   = "mixture.permutations"
	ComponentsKey     = "gmm.components"
	CovarianceTypeKey = "gmm.covariance_type"
	CriterionKey      = "gmm.criterion"
	LogLikelihoodKey  = "gmm.log_likelihood"
	ConvergedKey      = "gmm.converged"
	RandomSeedKey     = "config.random_seed"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// SuggestionKey provides a hint for resolving an issue.
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationFit        = "fit"
	OperationPredict    = "predict"
	OperationRank       = "rank"
	OperationSolve      = "solve"
	OperationImportance = "importance"
	OperationSelect     = "select"

	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
	ErrorSuperseded        = "SUPERSEDED"
)
