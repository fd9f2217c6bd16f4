// Package training fits the anti-oxidation regressor, either on the whole
// dataset for production or on a seeded split for offline evaluation.
package training

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/antiox/internal/dataset"
	"github.com/YuminosukeSato/antiox/sklearn/ensemble"
	"github.com/YuminosukeSato/antiox/sklearn/model_selection"
	scierrors "github.com/YuminosukeSato/antiox/pkg/errors"
	"github.com/YuminosukeSato/antiox/pkg/log"
)

// SplitConfig controls the evaluation hold-out.
type SplitConfig struct {
	TestSize float64
	Seed     int
}

// DefaultSplitConfig holds out 30% of the rows with seed 123.
func DefaultSplitConfig() SplitConfig {
	return SplitConfig{TestSize: 0.3, Seed: 123}
}

// Evaluation pairs a model fitted on the training partition with the
// held-out rows it never saw.
type Evaluation struct {
	Model  *ensemble.Model
	XTrain *mat.Dense
	YTrain *mat.Dense
	XTest  *mat.Dense
	YTest  *mat.Dense
}

// TrainProduction fits on every row of ds.
func TrainProduction(ctx context.Context, ds *dataset.Dataset, hp HyperParams) (*ensemble.Model, error) {
	if ds == nil {
		return nil, scierrors.Wrap(scierrors.ErrEmptyData, "TrainProduction")
	}
	return fit(ctx, ds.X, ds.Y, ds.FeatureNames, hp, "production")
}

// TrainEvaluation splits ds and fits on the training partition only.
func TrainEvaluation(ctx context.Context, ds *dataset.Dataset, hp HyperParams, split SplitConfig) (*Evaluation, error) {
	if ds == nil {
		return nil, scierrors.Wrap(scierrors.ErrEmptyData, "TrainEvaluation")
	}
	parts, err := model_selection.TrainTestSplit(ds.X, ds.Y, split.TestSize, split.Seed)
	if err != nil {
		return nil, err
	}
	model, err := fit(ctx, parts.XTrain, parts.YTrain, ds.FeatureNames, hp, "evaluation")
	if err != nil {
		return nil, err
	}
	return &Evaluation{
		Model:  model,
		XTrain: parts.XTrain,
		YTrain: parts.YTrain,
		XTest:  parts.XTest,
		YTest:  parts.YTest,
	}, nil
}

func fit(ctx context.Context, X, y *mat.Dense, names []string, hp HyperParams, mode string) (*ensemble.Model, error) {
	if err := hp.Validate(); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	logger := log.GetLoggerWithName("training").With("mode", mode)
	logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.TreesKey, hp.TreeCount,
		log.RandomSeedKey, hp.Seed)

	start := time.Now()
	reg := ensemble.NewGradientBoostingRegressor(hp.TrainingParams()).WithFeatureNames(names)
	if err := reg.FitContext(ctx, X, y); err != nil {
		logger.Error("Training failed", err)
		return nil, err
	}
	model, err := reg.Model()
	if err != nil {
		return nil, err
	}

	logger.Info("Training completed",
		log.TreesKey, model.NumTrees(),
		log.DurationMsKey, time.Since(start).Milliseconds())
	return model, nil
}
