// Package evaluation scores a fitted model on held-out rows and renders
// the diagnostic plots used when tuning the regressor offline.
package evaluation

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/antiox/internal/dataset"
	"github.com/YuminosukeSato/antiox/internal/training"
	"github.com/YuminosukeSato/antiox/metrics"
	"github.com/YuminosukeSato/antiox/sklearn/ensemble"
	"github.com/YuminosukeSato/antiox/sklearn/model_selection"
	scierrors "github.com/YuminosukeSato/antiox/pkg/errors"
	"github.com/YuminosukeSato/antiox/pkg/log"
)

// FeatureImportance is one entry of the gain ranking.
type FeatureImportance struct {
	Feature string
	Score   float64
}

// Report holds the metrics and per-row data for one evaluation.
type Report struct {
	RMSE float64
	MAE  float64
	MSE  float64
	// R2 is NaN when the held-out labels have no variance.
	R2 float64

	Actual      []float64
	Predictions []float64
	Residuals   []float64
	Importance  []FeatureImportance // descending by score
}

// Evaluate predicts XTest and compares against YTest.
func Evaluate(model *ensemble.Model, XTest, YTest mat.Matrix) (*Report, error) {
	if model == nil {
		return nil, scierrors.NewNotFittedError("GradientBoostingRegressor", "Evaluate")
	}
	pred, err := ensemble.NewPredictor(model).Predict(XTest)
	if err != nil {
		return nil, err
	}
	yTrue, err := metrics.ColumnVector(YTest)
	if err != nil {
		return nil, err
	}
	yPred, err := metrics.ColumnVector(pred)
	if err != nil {
		return nil, err
	}

	r := &Report{}
	if r.MSE, err = metrics.MSE(yTrue, yPred); err != nil {
		return nil, err
	}
	if r.RMSE, err = metrics.RMSE(yTrue, yPred); err != nil {
		return nil, err
	}
	if r.MAE, err = metrics.MAE(yTrue, yPred); err != nil {
		return nil, err
	}
	if r.R2, err = metrics.R2Score(yTrue, yPred); err != nil {
		var vErr *scierrors.ValueError
		if !scierrors.As(err, &vErr) {
			return nil, err
		}
		r.R2 = math.NaN()
	}
	if r.Residuals, err = metrics.Residuals(yTrue, yPred); err != nil {
		return nil, err
	}
	r.Actual = mat.Col(nil, 0, YTest)
	r.Predictions = mat.Col(nil, 0, pred)
	r.Importance = Importance(model)

	log.GetLoggerWithName("evaluation").Info("Evaluation completed",
		log.OperationKey, log.OperationEvaluate,
		log.SamplesKey, len(r.Actual),
		log.RMSEKey, r.RMSE,
		log.MAEKey, r.MAE,
		log.R2ScoreKey, r.R2)
	return r, nil
}

// Importance ranks features by normalised total gain.
func Importance(model *ensemble.Model) []FeatureImportance {
	scores := model.GetFeatureImportance("gain")
	out := make([]FeatureImportance, len(scores))
	for i, s := range scores {
		name := ""
		if i < len(model.FeatureNames) {
			name = model.FeatureNames[i]
		}
		out[i] = FeatureImportance{Feature: name, Score: s}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	return out
}

// CVResult holds per-fold RMSE from CrossValidate.
type CVResult struct {
	FoldRMSE []float64
	Mean     float64
	StdDev   float64
}

// CrossValidate fits one model per fold on the remaining rows and scores
// it on the fold.
func CrossValidate(ctx context.Context, ds *dataset.Dataset, hp training.HyperParams, folds, seed int) (*CVResult, error) {
	if ds == nil {
		return nil, scierrors.Wrap(scierrors.ErrEmptyData, "CrossValidate")
	}
	splits, err := model_selection.NewKFold(folds, true, seed).Split(ds.X)
	if err != nil {
		return nil, err
	}

	logger := log.GetLoggerWithName("evaluation")
	res := &CVResult{FoldRMSE: make([]float64, 0, len(splits))}
	for i, fold := range splits {
		train := &dataset.Dataset{
			X:            model_selection.TakeRows(ds.X, fold.TrainIndices),
			Y:            model_selection.TakeRows(ds.Y, fold.TrainIndices),
			FeatureNames: ds.FeatureNames,
			Label:        ds.Label,
			Source:       ds.Source,
		}
		model, err := training.TrainProduction(ctx, train, hp)
		if err != nil {
			return nil, scierrors.Wrapf(err, "fold %d", i)
		}
		report, err := Evaluate(model,
			model_selection.TakeRows(ds.X, fold.TestIndices),
			model_selection.TakeRows(ds.Y, fold.TestIndices))
		if err != nil {
			return nil, scierrors.Wrapf(err, "fold %d", i)
		}
		res.FoldRMSE = append(res.FoldRMSE, report.RMSE)
		logger.Debug("Fold scored", log.IterationKey, i, log.RMSEKey, report.RMSE)
	}
	res.Mean, res.StdDev = stat.MeanStdDev(res.FoldRMSE, nil)
	return res, nil
}
