// Package log defines standard attribute keys for silva's logging.
//
// Keys follow a hierarchical naming convention (e.g. "model.objective",
// "data.samples") so that export runs can be filtered and compared in
// structured log output.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model. Example: "gbtree"
	ModelNameKey = "model.name"

	// ObjectiveKey records the training objective. Example: "binary:logistic"
	ObjectiveKey = "model.objective"

	// EstimatorIDKey identifies one export run, so every line of a run can be
	// correlated. Populated with a UUID.
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	// Standard values: "train", "predict", "export", "verify"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is logging.
	ComponentKey = "ml.component"

	// TaskKey names the export task. Example: "multiclass_classification"
	TaskKey = "export.task"

	// ModeKey records the export mode. Standard values: "full_fit", "split"
	ModeKey = "export.mode"

	// PathKey records a file or directory written or read.
	PathKey = "export.path"
)

// Data Shape
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// ClassesKey indicates the number of classes for classification tasks.
	ClassesKey = "data.classes"

	// OutputsKey indicates the width of the prediction output.
	OutputsKey = "data.outputs"
)

// Training Progress and Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// IterationKey records the current boosting round.
	IterationKey = "training.iteration"

	// MetricKey names the evaluation metric. Example: "rmse"
	MetricKey = "metrics.name"

	// LossKey records the evaluation metric value.
	LossKey = "metrics.loss"

	// MaxDiffKey records the largest absolute prediction difference found by verification.
	MaxDiffKey = "metrics.max_diff"
)

// Error Context
const (
	// ErrorCodeKey carries the code of a structured error, e.g. "INVALID_INPUT".
	ErrorCodeKey = "error.code"
)

// Configuration
const (
	// RandomSeedKey records the random seed for reproducibility.
	// Omitted for unseeded runs.
	RandomSeedKey = "config.random_seed"

	// RoundsKey records the number of boosting rounds.
	RoundsKey = "config.rounds"

	// VariantKey records which run configuration is in use. Example: "test"
	VariantKey = "config.variant"
)

// Standard attribute values.
const (
	OperationTrain   = "train"
	OperationPredict = "predict"
	OperationExport  = "export"
	OperationVerify  = "verify"
	OperationPlot    = "plot"
)
