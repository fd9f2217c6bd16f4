package ensemble

import (
	"runtime"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/antiox/core/parallel"
	scierrors "github.com/YuminosukeSato/antiox/pkg/errors"
)

// parallelThreshold is the row count below which Predictor stays on the
// calling goroutine.
const parallelThreshold = 256

// Predictor evaluates a Model over large batches across goroutines.
// Row results are independent, so parallel output equals sequential output.
type Predictor struct {
	model      *Model
	numThreads int
}

// NewPredictor creates a new predictor with the given model
func NewPredictor(model *Model) *Predictor {
	return &Predictor{model: model, numThreads: runtime.NumCPU()}
}

// SetNumThreads sets the number of goroutines used for large batches.
func (p *Predictor) SetNumThreads(n int) {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	p.numThreads = n
}

// Predict returns a rows x 1 matrix of predictions.
func (p *Predictor) Predict(X mat.Matrix) (*mat.Dense, error) {
	rows, cols := X.Dims()
	if cols != p.model.NumFeatures {
		return nil, scierrors.NewDimensionError("Predictor.Predict", p.model.NumFeatures, cols, 1)
	}
	predictions := mat.NewDense(rows, 1, nil)
	if rows == 0 {
		return predictions, nil
	}

	out := predictions.RawMatrix().Data
	work := func(start, end int) {
		features := make([]float64, cols)
		for i := start; i < end; i++ {
			mat.Row(features, i, X)
			out[i] = p.model.PredictSingle(features)
		}
	}

	if rows <= parallelThreshold || p.numThreads == 1 {
		work(0, rows)
	} else {
		parallel.ParallelizeWorkers(rows, p.numThreads, work)
	}
	return predictions, nil
}
