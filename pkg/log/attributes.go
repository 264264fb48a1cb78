// Standard attribute keys for emulation operations. Using these keys across
// packages keeps logs filterable by trial, model, transform chain and data
// shape.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the emulator model class.
	// Examples: "GaussianProcess", "Ridge"
	ModelNameKey = "model.name"

	// TrialIDKey is the unique identifier of a tuning trial.
	TrialIDKey = "trial.id"

	// CombinationKey describes a (model, x-chain, y-chain) combination.
	// Example: "GaussianProcess/x:standardize/y:standardize,pca"
	CombinationKey = "trial.combination"

	// OperationKey names the operation being performed.
	// Standard values: "fit", "predict", "transform", "inverse", "compare"
	OperationKey = "ml.operation"

	// ComponentKey names the package performing the operation.
	// Examples: "transforms", "emulators", "compare"
	ComponentKey = "ml.component"
)

// Data shape.
const (
	// SamplesKey is the number of samples (rows).
	SamplesKey = "data.samples"

	// FeaturesKey is the number of input features (columns of x).
	FeaturesKey = "data.features"

	// TargetsKey is the number of output targets (columns of y).
	TargetsKey = "data.targets"
)

// Scores and timing.
const (
	// MetricKey names the scoring function, e.g. "r2", "rmse".
	MetricKey = "score.metric"

	// ScoreKey is a computed metric value.
	ScoreKey = "score.value"

	// TrainScoreKey and TestScoreKey distinguish split-specific scores.
	TrainScoreKey = "score.train"
	TestScoreKey  = "score.test"

	// DurationMsKey is elapsed wall time in milliseconds.
	DurationMsKey = "duration_ms"

	// SeedKey is the random seed in effect for the operation.
	SeedKey = "seed"
)

// Error context.
const (
	// ErrorKey carries an error value.
	ErrorKey = "error"

	// ErrorKindKey classifies a trial failure: "model_fit", "timeout",
	// "cancelled", "numerical".
	ErrorKindKey = "error.kind"

	// StacktraceKey carries a stack trace extracted from a wrapped error.
	StacktraceKey = "stacktrace"
)
