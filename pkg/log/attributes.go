// Standard attribute keys for training, inference and the HTTP surface.
//
// Keys follow a hierarchical naming convention ("model.id", "data.samples")
// so log queries can filter by prefix.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type, e.g. "GradientBoostingRegressor".
	ModelNameKey = "model.name"

	// ModelIDKey is the uuid assigned to a trained model artifact.
	ModelIDKey = "model.id"

	// ModelPathKey is the artifact location on disk.
	ModelPathKey = "model.path"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "persist", "load", "evaluate"
	OperationKey = "ml.operation"

	// ComponentKey identifies which component is logging.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of model lifecycle.
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	DatasetKey  = "data.path"
	TestSizeKey = "data.test_size"
)

// Performance and metrics.
const (
	DurationMsKey = "perf.duration_ms"
	RMSEKey       = "metrics.rmse"
	MAEKey        = "metrics.mae"
	R2ScoreKey    = "metrics.r2_score"
	IterationKey  = "training.iteration"
	TreesKey      = "training.trees"
)

// Prediction context.
const (
	PredictionKey   = "preds.value"
	PredictionIDKey = "preds.id"
	FailureKindKey  = "preds.failure_kind"
)

// HTTP surface.
const (
	HTTPMethodKey = "http.method"
	HTTPPathKey   = "http.path"
	HTTPStatusKey = "http.status"
	RemoteAddrKey = "http.remote_addr"
)

// Hyperparameters and configuration.
const (
	HyperParamsKey  = "model.hyperparams"
	RandomSeedKey   = "config.random_seed"
	ConfigSourceKey = "config.source"
)

// Error context.
const (
	ErrorCodeKey  = "error.code"
	ErrorTypeKey  = "error.type"
	StacktraceKey = "error.stacktrace"
)

// Standard attribute values.
const (
	OperationFit      = "fit"
	OperationPredict  = "predict"
	OperationPersist  = "persist"
	OperationLoad     = "load"
	OperationEvaluate = "evaluate"

	PhaseTraining   = "training"
	PhaseValidation = "validation"
	PhaseInference  = "inference"
	PhaseStartup    = "startup"

	ErrorDatasetNotFound = "DATASET_NOT_FOUND"
	ErrorSchemaMismatch  = "SCHEMA_MISMATCH"
	ErrorInvalidInput    = "INVALID_INPUT"
	ErrorModelNotLoaded  = "MODEL_NOT_LOADED"
	ErrorInference       = "INFERENCE_FAILURE"
)
