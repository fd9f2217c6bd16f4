package training

import (
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/antiox/sklearn/ensemble"
	scierrors "github.com/YuminosukeSato/antiox/pkg/errors"
)

// HyperParams configures the boosted tree regressor.
type HyperParams struct {
	TreeCount        int     `yaml:"tree_count" json:"tree_count"`
	MaxDepth         int     `yaml:"max_depth" json:"max_depth"`
	L1Regularization float64 `yaml:"l1_regularization" json:"l1_regularization"`
	L2Regularization float64 `yaml:"l2_regularization" json:"l2_regularization"`
	LearningRate     float64 `yaml:"learning_rate" json:"learning_rate"`
	RowSubsample     float64 `yaml:"row_subsample_fraction" json:"row_subsample_fraction"`
	ColumnSubsample  float64 `yaml:"column_subsample_fraction" json:"column_subsample_fraction"`
	Seed             int     `yaml:"seed" json:"seed"`
}

// DefaultHyperParams returns the production configuration.
func DefaultHyperParams() HyperParams {
	return HyperParams{
		TreeCount:        100,
		MaxDepth:         4,
		L1Regularization: 10,
		L2Regularization: 1,
		LearningRate:     0.1,
		RowSubsample:     0.8,
		ColumnSubsample:  0.8,
		Seed:             123,
	}
}

// Validate returns a ValidationError for the first out-of-range option.
func (h HyperParams) Validate() error {
	switch {
	case h.TreeCount <= 0:
		return scierrors.NewValidationError("tree_count", "must be a positive integer", h.TreeCount)
	case h.MaxDepth <= 0:
		return scierrors.NewValidationError("max_depth", "must be a positive integer", h.MaxDepth)
	case !(h.L1Regularization >= 0):
		return scierrors.NewValidationError("l1_regularization", "must be non-negative", h.L1Regularization)
	case !(h.L2Regularization >= 0):
		return scierrors.NewValidationError("l2_regularization", "must be non-negative", h.L2Regularization)
	case !(h.LearningRate > 0 && h.LearningRate <= 1):
		return scierrors.NewValidationError("learning_rate", "must be in (0, 1]", h.LearningRate)
	case !(h.RowSubsample > 0 && h.RowSubsample <= 1):
		return scierrors.NewValidationError("row_subsample_fraction", "must be in (0, 1]", h.RowSubsample)
	case !(h.ColumnSubsample > 0 && h.ColumnSubsample <= 1):
		return scierrors.NewValidationError("column_subsample_fraction", "must be in (0, 1]", h.ColumnSubsample)
	}
	return nil
}

// TrainingParams maps the options onto the engine's parameters.
func (h HyperParams) TrainingParams() ensemble.TrainingParams {
	p := ensemble.DefaultTrainingParams()
	p.NumIterations = h.TreeCount
	p.MaxDepth = h.MaxDepth
	p.Alpha = h.L1Regularization
	p.Lambda = h.L2Regularization
	p.LearningRate = h.LearningRate
	p.Subsample = h.RowSubsample
	p.ColsampleByTree = h.ColumnSubsample
	p.Seed = h.Seed
	return p
}

// LoadHyperParams reads the "training" section of a YAML file over the
// defaults, so omitted keys keep their default values. Unknown keys are
// rejected and an empty file yields the defaults.
func LoadHyperParams(path string) (HyperParams, error) {
	f, err := os.Open(path)
	if err != nil {
		return DefaultHyperParams(), scierrors.Wrapf(err, "failed to read training config %s", path)
	}
	defer f.Close()

	file := struct {
		Training HyperParams `yaml:"training"`
	}{Training: DefaultHyperParams()}

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return DefaultHyperParams(), scierrors.Wrapf(err, "failed to parse training config %s", path)
	}
	if err := file.Training.Validate(); err != nil {
		return file.Training, err
	}
	return file.Training, nil
}
