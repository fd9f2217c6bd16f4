package ensemble

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/antiox/core/model"
	"github.com/YuminosukeSato/antiox/metrics"
	scierrors "github.com/YuminosukeSato/antiox/pkg/errors"
	"github.com/YuminosukeSato/antiox/pkg/log"
)

// GradientBoostingRegressor is the estimator front end of the trainer.
type GradientBoostingRegressor struct {
	model.BaseEstimator

	Params       TrainingParams
	FeatureNames []string

	fitted *Model
	logger log.Logger
}

var _ model.Regressor = (*GradientBoostingRegressor)(nil)

// NewGradientBoostingRegressor creates an unfitted regressor.
func NewGradientBoostingRegressor(params TrainingParams) *GradientBoostingRegressor {
	return &GradientBoostingRegressor{
		Params: params,
		logger: log.GetLoggerWithName("ensemble.regressor"),
	}
}

// WithFeatureNames sets the column names recorded on the fitted model.
func (r *GradientBoostingRegressor) WithFeatureNames(names []string) *GradientBoostingRegressor {
	r.FeatureNames = names
	return r
}

// Fit trains the regressor without cancellation.
func (r *GradientBoostingRegressor) Fit(X, y mat.Matrix) error {
	return r.FitContext(context.Background(), X, y)
}

// FitContext trains the regressor, aborting between rounds when ctx is done.
func (r *GradientBoostingRegressor) FitContext(ctx context.Context, X, y mat.Matrix) (err error) {
	defer scierrors.Recover(&err, "GradientBoostingRegressor.Fit")

	rows, cols := X.Dims()
	r.logger.Debug("Fitting regressor",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.TreesKey, r.Params.NumIterations)

	trainer := NewTrainer(r.Params)
	if r.FeatureNames != nil {
		trainer.WithFeatureNames(r.FeatureNames)
	}
	if err := trainer.Fit(ctx, X, y); err != nil {
		r.Reset()
		r.fitted = nil
		return err
	}

	r.fitted = trainer.GetModel()
	r.SetFitted()
	return nil
}

// Model returns the fitted ensemble.
func (r *GradientBoostingRegressor) Model() (*Model, error) {
	if !r.IsFitted() {
		return nil, scierrors.NewNotFittedError("GradientBoostingRegressor", "Model")
	}
	return r.fitted, nil
}

// Predict returns a rows x 1 prediction matrix.
func (r *GradientBoostingRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !r.IsFitted() {
		return nil, scierrors.NewNotFittedError("GradientBoostingRegressor", "Predict")
	}
	return NewPredictor(r.fitted).Predict(X)
}

// Score returns the coefficient of determination on (X, y).
func (r *GradientBoostingRegressor) Score(X, y mat.Matrix) (float64, error) {
	pred, err := r.Predict(X)
	if err != nil {
		return 0, err
	}
	yTrue, err := metrics.ColumnVector(y)
	if err != nil {
		return 0, err
	}
	yPred, err := metrics.ColumnVector(pred)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(yTrue, yPred)
}

// FeatureImportances returns normalised importances of the fitted model.
func (r *GradientBoostingRegressor) FeatureImportances(importanceType string) ([]float64, error) {
	if !r.IsFitted() {
		return nil, scierrors.NewNotFittedError("GradientBoostingRegressor", "FeatureImportances")
	}
	switch importanceType {
	case "gain", "split":
		return r.fitted.GetFeatureImportance(importanceType), nil
	default:
		return nil, scierrors.NewValidationError("importance_type", `must be "gain" or "split"`, importanceType)
	}
}
