package log

// Standard attribute keys. Keys are dotted so they group well in log queries.

// Dataset and run identity.
const (
	// DatasetKey is the human name given to a TrainingData.
	DatasetKey = "dataset.name"

	// DatasetIDKey is the uuid of a TrainingData.
	DatasetIDKey = "dataset.id"

	// RunIDKey is the uuid of a Hyperparameter (one tuning run).
	RunIDKey = "run.id"

	// ComponentKey identifies the package emitting the record.
	ComponentKey = "knn.component"

	// OperationKey names the operation being performed.
	OperationKey = "knn.operation"
)

// Data shape.
const (
	// SamplesKey is the number of raw records handed to Load.
	SamplesKey = "data.samples"

	// TrainingSizeKey is the size of the training partition.
	TrainingSizeKey = "data.training"

	// TestingSizeKey is the size of the testing partition.
	TestingSizeKey = "data.testing"

	// RowKey is the 0-based position of a raw record.
	RowKey = "data.row"
)

// Hyperparameters.
const (
	KKey      = "knn.k"
	MetricKey = "knn.metric"
)

// Results and timing.
const (
	// AccuracyKey is the quality (fraction correct) of a tuning run.
	AccuracyKey = "metrics.accuracy"

	PassKey = "metrics.pass"
	FailKey = "metrics.fail"

	// LabelKey is a predicted label.
	LabelKey = "preds.label"

	DurationMsKey = "perf.duration_ms"
)

// Error context.
const (
	ErrorTypeKey  = "error.type"
	StacktraceKey = "error.stacktrace"
)

// Standard values for OperationKey.
const (
	OperationLoad     = "load"
	OperationTune     = "tune"
	OperationEvaluate = "evaluate"
	OperationClassify = "classify"
	OperationSweep    = "sweep"
)
