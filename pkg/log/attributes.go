// Package log defines standard attribute keys for the AutoML workflow.
//
// Using these keys keeps log lines from the dataset store, the training
// request builder, the model search and the HTTP binding consistent, so a
// single session can be followed across components.
//
// The attributes are organized into categories:
//   - Component and Operation Context
//   - Dataset and Feature Set
//   - Training Run
//   - Error Context
//
// Keys follow a hierarchical naming convention (e.g., "dataset.rows",
// "features.ignored") to enable structured log analysis and filtering.

package log

// Component and Operation Context
const (
	// ComponentKey identifies which component is logging.
	// Examples: "session", "automl", "server"
	ComponentKey = "component"

	// OperationKey specifies the operation being performed.
	// Examples: "ignore", "restore", "upload", "fit", "predict"
	OperationKey = "operation"

	// UserKey identifies the signed in user.
	UserKey = "user"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Dataset and Feature Set
// These attributes describe the loaded table and the partition of its columns.
const (
	// DatasetNameKey is the uploaded file name.
	DatasetNameKey = "dataset.name"

	// DatasetRowsKey is the number of rows in the active table.
	DatasetRowsKey = "dataset.rows"

	// DatasetColumnsKey is the number of active columns.
	DatasetColumnsKey = "dataset.columns"

	// FeaturesIgnoredKey lists the columns moved out by an ignore action.
	FeaturesIgnoredKey = "features.ignored"

	// FeaturesRestoredKey is the column moved back by a restore action.
	FeaturesRestoredKey = "features.restored"

	// FeaturesRemovedKey lists every currently removed column.
	FeaturesRemovedKey = "features.removed"

	// FeaturesKey is the number of predictor columns handed to a model.
	FeaturesKey = "data.features"

	// SamplesKey is the number of rows handed to a model.
	SamplesKey = "data.samples"
)

// Training Run
const (
	// RunIDKey is the uuid of one model search.
	RunIDKey = "run.id"

	// TargetKey is the target column of a training request.
	TargetKey = "training.target"

	// TrainFractionKey is the requested training fraction.
	TrainFractionKey = "training.train_fraction"

	// TestFractionKey is the derived test fraction.
	TestFractionKey = "training.test_fraction"

	// ModelKindKey is "classification" or "regression".
	ModelKindKey = "model.kind"

	// ModelNameKey is the candidate estimator name.
	// Examples: "LogisticRegression(C=1)", "Ridge(alpha=10)"
	ModelNameKey = "model.name"

	// MetricKey is the name of the ranking metric.
	MetricKey = "metrics.name"

	// ScoreKey is the candidate or best score on the held-out split.
	ScoreKey = "metrics.score"

	// IterationKey records the iteration of an iterative solver.
	IterationKey = "training.iteration"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Error and Warning Context
const (
	// ErrorTypeKey is the Go type of the underlying error.
	ErrorTypeKey = "error.type"

	// StatusKey is the HTTP status written for a request.
	StatusKey = "http.status"
)

// Standard attribute values.
const (
	OperationUpload  = "upload"
	OperationIgnore  = "ignore"
	OperationRestore = "restore"
	OperationTrain   = "train"
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationScore   = "score"
)
