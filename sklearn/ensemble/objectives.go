package ensemble

import (
	scierrors "github.com/YuminosukeSato/antiox/pkg/errors"
)

// ObjectiveFunction defines the interface for different objective functions
type ObjectiveFunction interface {
	// CalculateGradient calculates the gradient for a single sample
	CalculateGradient(prediction, target float64) float64

	// CalculateHessian calculates the hessian for a single sample
	CalculateHessian(prediction, target float64) float64

	// CalculateLoss calculates the loss for a single sample
	CalculateLoss(prediction, target float64) float64

	// GetInitScore returns the initial score for this objective
	GetInitScore(targets []float64) float64

	// Name returns the name of the objective
	Name() string
}

// ObjectiveType represents the objective function type
type ObjectiveType string

const (
	// RegressionL2 is squared error regression.
	RegressionL2 ObjectiveType = "reg:squarederror"
	// RegressionL2Alias is the LightGBM spelling of squared error regression.
	RegressionL2Alias ObjectiveType = "regression"
)

// L2Objective implements squared error loss.
type L2Objective struct{}

func NewL2Objective() *L2Objective {
	return &L2Objective{}
}

func (o *L2Objective) CalculateGradient(prediction, target float64) float64 {
	return prediction - target
}

func (o *L2Objective) CalculateHessian(prediction, target float64) float64 {
	return 1.0
}

func (o *L2Objective) CalculateLoss(prediction, target float64) float64 {
	diff := prediction - target
	return 0.5 * diff * diff
}

// GetInitScore returns the target mean, the loss minimiser for a constant model.
func (o *L2Objective) GetInitScore(targets []float64) float64 {
	if len(targets) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, t := range targets {
		sum += t
	}
	return sum / float64(len(targets))
}

func (o *L2Objective) Name() string {
	return string(RegressionL2)
}

// CreateObjectiveFunction creates an objective function based on the objective name.
// An empty name selects squared error.
func CreateObjectiveFunction(objective string) (ObjectiveFunction, error) {
	switch ObjectiveType(objective) {
	case "", RegressionL2, RegressionL2Alias:
		return NewL2Objective(), nil
	default:
		return nil, scierrors.NewValidationError("objective", "unsupported objective", objective)
	}
}
