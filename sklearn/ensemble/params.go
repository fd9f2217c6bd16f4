package ensemble

import (
	scierrors "github.com/YuminosukeSato/antiox/pkg/errors"
)

// TrainingParams contains all training hyperparameters.
type TrainingParams struct {
	// Basic parameters
	NumIterations int     `json:"num_iterations"`
	LearningRate  float64 `json:"learning_rate"`
	MaxDepth      int     `json:"max_depth"`
	MinDataInLeaf int     `json:"min_data_in_leaf"`

	// Regularization
	Lambda         float64 `json:"lambda_l2"`
	Alpha          float64 `json:"lambda_l1"`
	MinGainToSplit float64 `json:"min_gain_to_split"`

	// Sampling, redrawn for every tree
	Subsample       float64 `json:"subsample"`
	ColsampleByTree float64 `json:"colsample_bytree"`

	Objective string `json:"objective"`
	Seed      int    `json:"seed"`
}

// DefaultTrainingParams returns the production defaults: 100 rounds of
// depth-4 trees with strong L1 shrinkage and 80% row and column sampling.
func DefaultTrainingParams() TrainingParams {
	return TrainingParams{
		NumIterations:   100,
		LearningRate:    0.1,
		MaxDepth:        4,
		MinDataInLeaf:   1,
		Lambda:          1.0,
		Alpha:           10.0,
		Subsample:       0.8,
		ColsampleByTree: 0.8,
		Objective:       string(RegressionL2),
		Seed:            123,
	}
}

// Validate checks every parameter and returns a ValidationError naming the
// first offending one.
func (p TrainingParams) Validate() error {
	switch {
	case p.NumIterations <= 0:
		return scierrors.NewValidationError("num_iterations", "must be positive", p.NumIterations)
	case p.MaxDepth <= 0:
		return scierrors.NewValidationError("max_depth", "must be positive", p.MaxDepth)
	case p.MinDataInLeaf <= 0:
		return scierrors.NewValidationError("min_data_in_leaf", "must be positive", p.MinDataInLeaf)
	case !(p.LearningRate > 0 && p.LearningRate <= 1):
		return scierrors.NewValidationError("learning_rate", "must be in (0, 1]", p.LearningRate)
	case !(p.Lambda >= 0):
		return scierrors.NewValidationError("lambda_l2", "must be non-negative", p.Lambda)
	case !(p.Alpha >= 0):
		return scierrors.NewValidationError("lambda_l1", "must be non-negative", p.Alpha)
	case !(p.MinGainToSplit >= 0):
		return scierrors.NewValidationError("min_gain_to_split", "must be non-negative", p.MinGainToSplit)
	case !(p.Subsample > 0 && p.Subsample <= 1):
		return scierrors.NewValidationError("subsample", "must be in (0, 1]", p.Subsample)
	case !(p.ColsampleByTree > 0 && p.ColsampleByTree <= 1):
		return scierrors.NewValidationError("colsample_bytree", "must be in (0, 1]", p.ColsampleByTree)
	}
	if _, err := CreateObjectiveFunction(p.Objective); err != nil {
		return err
	}
	return nil
}
