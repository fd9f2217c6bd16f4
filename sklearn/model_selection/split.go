// Package model_selection provides reproducible dataset partitioning:
// a shuffled train/test split and a K-fold splitter.
package model_selection

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	scierrors "github.com/YuminosukeSato/antiox/pkg/errors"
)

// Split holds the four partitions produced by TrainTestSplit.
type Split struct {
	XTrain, XTest *mat.Dense
	YTrain, YTest *mat.Dense

	TrainIndices []int
	TestIndices  []int
}

// TrainTestSplit shuffles row indices with a PCG source seeded by seed and
// holds out ceil(testSize * rows) rows. Both partitions keep at least one row.
func TrainTestSplit(X, y mat.Matrix, testSize float64, seed int) (*Split, error) {
	rows, _ := X.Dims()
	yRows, _ := y.Dims()
	if rows != yRows {
		return nil, scierrors.NewDimensionError("TrainTestSplit", rows, yRows, 0)
	}
	if !(testSize > 0 && testSize < 1) {
		return nil, scierrors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}
	if rows < 2 {
		return nil, scierrors.NewValueError("TrainTestSplit", "need at least 2 samples to split")
	}

	nTest := int(math.Ceil(testSize * float64(rows)))
	nTest = min(max(nTest, 1), rows-1)

	indices := shuffledIndices(rows, seed)
	test := append([]int(nil), indices[:nTest]...)
	train := append([]int(nil), indices[nTest:]...)

	return &Split{
		XTrain:       TakeRows(X, train),
		XTest:        TakeRows(X, test),
		YTrain:       TakeRows(y, train),
		YTest:        TakeRows(y, test),
		TrainIndices: train,
		TestIndices:  test,
	}, nil
}

// CVFold represents a single fold in cross-validation
type CVFold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold implements k-fold cross-validation splitter
type KFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int
}

// NewKFold creates a new k-fold splitter. nSplits below 2 defaults to 5.
func NewKFold(nSplits int, shuffle bool, randomSeed int) *KFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &KFold{
		NSplits:    nSplits,
		Shuffle:    shuffle,
		RandomSeed: randomSeed,
	}
}

// Split generates train/test indices for each fold. The first
// rows % NSplits folds get one extra test row.
func (kf *KFold) Split(X mat.Matrix) ([]CVFold, error) {
	nSamples, _ := X.Dims()
	if nSamples < kf.NSplits {
		return nil, scierrors.NewValidationError("n_splits", "cannot exceed the number of samples", kf.NSplits)
	}

	var indices []int
	if kf.Shuffle {
		indices = shuffledIndices(nSamples, kf.RandomSeed)
	} else {
		indices = make([]int, nSamples)
		for i := range indices {
			indices[i] = i
		}
	}

	folds := make([]CVFold, kf.NSplits)
	foldSize := nSamples / kf.NSplits
	remainder := nSamples % kf.NSplits

	current := 0
	for i := 0; i < kf.NSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}

		test := append([]int(nil), indices[current:current+testSize]...)
		train := make([]int, 0, nSamples-testSize)
		train = append(train, indices[:current]...)
		train = append(train, indices[current+testSize:]...)
		sort.Ints(train)
		sort.Ints(test)

		folds[i] = CVFold{TrainIndices: train, TestIndices: test}
		current += testSize
	}
	return folds, nil
}

// TakeRows copies the given rows of m, in order, into a new matrix.
func TakeRows(m mat.Matrix, indices []int) *mat.Dense {
	if len(indices) == 0 {
		return &mat.Dense{}
	}
	_, cols := m.Dims()
	out := mat.NewDense(len(indices), cols, nil)
	row := make([]float64, cols)
	for i, idx := range indices {
		mat.Row(row, idx, m)
		out.SetRow(i, row)
	}
	return out
}

func shuffledIndices(n, seed int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	r := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	r.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})
	return indices
}
