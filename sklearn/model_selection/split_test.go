package model_selection

import (
	"sort"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func sequentialData(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.SetRow(i, []float64{float64(i), float64(i * 10)})
		y.Set(i, 0, float64(i))
	}
	return X, y
}

func TestTrainTestSplitSizesAndDisjoint(t *testing.T) {
	X, y := sequentialData(10)

	split, err := TrainTestSplit(X, y, 0.3, 123)
	if err != nil {
		t.Fatalf("TrainTestSplit() error = %v", err)
	}

	if len(split.TestIndices) != 3 || len(split.TrainIndices) != 7 {
		t.Fatalf("sizes = %d/%d, want 7/3", len(split.TrainIndices), len(split.TestIndices))
	}

	all := append(append([]int(nil), split.TrainIndices...), split.TestIndices...)
	sort.Ints(all)
	for i, v := range all {
		if v != i {
			t.Fatalf("indices are not a partition: %v", all)
		}
	}

	// features and labels stay aligned after the shuffle
	for i, idx := range split.TestIndices {
		if split.XTest.At(i, 0) != float64(idx) || split.YTest.At(i, 0) != float64(idx) {
			t.Errorf("row %d misaligned with source row %d", i, idx)
		}
	}
}

func TestTrainTestSplitReproducible(t *testing.T) {
	X, y := sequentialData(50)

	a, err := TrainTestSplit(X, y, 0.3, 123)
	if err != nil {
		t.Fatal(err)
	}
	b, err := TrainTestSplit(X, y, 0.3, 123)
	if err != nil {
		t.Fatal(err)
	}
	c, err := TrainTestSplit(X, y, 0.3, 7)
	if err != nil {
		t.Fatal(err)
	}

	if !mat.Equal(a.XTest, b.XTest) {
		t.Error("same seed must give the same split")
	}
	if mat.Equal(a.XTest, c.XTest) {
		t.Error("different seeds should give different splits")
	}
}

func TestTrainTestSplitErrors(t *testing.T) {
	X, y := sequentialData(5)

	tests := []struct {
		name     string
		X, y     mat.Matrix
		testSize float64
	}{
		{"test size zero", X, y, 0},
		{"test size one", X, y, 1},
		{"row mismatch", X, mat.NewDense(4, 1, nil), 0.3},
		{"single row", mat.NewDense(1, 2, nil), mat.NewDense(1, 1, nil), 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := TrainTestSplit(tt.X, tt.y, tt.testSize, 1); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestKFoldSplit(t *testing.T) {
	X, _ := sequentialData(11)

	folds, err := NewKFold(3, true, 42).Split(X)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(folds) != 3 {
		t.Fatalf("got %d folds", len(folds))
	}

	seen := make(map[int]int)
	wantSizes := []int{4, 4, 3}
	for i, fold := range folds {
		if len(fold.TestIndices) != wantSizes[i] {
			t.Errorf("fold %d test size = %d, want %d", i, len(fold.TestIndices), wantSizes[i])
		}
		if len(fold.TrainIndices)+len(fold.TestIndices) != 11 {
			t.Errorf("fold %d does not cover all rows", i)
		}
		for _, idx := range fold.TestIndices {
			seen[idx]++
		}
	}
	for i := 0; i < 11; i++ {
		if seen[i] != 1 {
			t.Errorf("row %d appears in %d test folds", i, seen[i])
		}
	}
}

func TestKFoldTooManySplits(t *testing.T) {
	X, _ := sequentialData(3)
	if _, err := NewKFold(5, false, 0).Split(X); err == nil {
		t.Error("expected error when n_splits exceeds samples")
	}
}
