package training

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/antiox/internal/dataset"
	"github.com/YuminosukeSato/antiox/internal/schema"
	scierrors "github.com/YuminosukeSato/antiox/pkg/errors"
)

func syntheticDataset(t *testing.T, n int) *dataset.Dataset {
	t.Helper()
	r := rand.New(rand.NewPCG(9, 9))
	var sb strings.Builder
	sb.WriteString("R,G,B,Brix,Hardness,Anti-oxidation\n")
	for i := 0; i < n; i++ {
		rr, g, b := r.Float64()*255, r.Float64()*255, r.Float64()*255
		brix, hard := 8+r.Float64()*8, 5+r.Float64()*5
		label := 0.002*rr - 0.001*g + 0.03*brix + 0.01*r.NormFloat64()
		fmt.Fprintf(&sb, "%f,%f,%f,%f,%f,%f\n", rr, g, b, brix, hard, label)
	}
	ds, err := dataset.Read(strings.NewReader(sb.String()), "synthetic", "Anti-oxidation", schema.Default)
	require.NoError(t, err)
	return ds
}

func TestHyperParamsDefaultsAndValidate(t *testing.T) {
	hp := DefaultHyperParams()
	assert.Equal(t, 100, hp.TreeCount)
	assert.Equal(t, 4, hp.MaxDepth)
	assert.Equal(t, 10.0, hp.L1Regularization)
	assert.Equal(t, 0.1, hp.LearningRate)
	assert.Equal(t, 0.8, hp.RowSubsample)
	assert.Equal(t, 0.8, hp.ColumnSubsample)
	require.NoError(t, hp.Validate())

	tests := []struct {
		name   string
		mutate func(*HyperParams)
		param  string
	}{
		{"tree count", func(h *HyperParams) { h.TreeCount = 0 }, "tree_count"},
		{"depth", func(h *HyperParams) { h.MaxDepth = 0 }, "max_depth"},
		{"l1", func(h *HyperParams) { h.L1Regularization = -0.1 }, "l1_regularization"},
		{"lr", func(h *HyperParams) { h.LearningRate = 1.01 }, "learning_rate"},
		{"lr nan", func(h *HyperParams) { h.LearningRate = math.NaN() }, "learning_rate"},
		{"rows", func(h *HyperParams) { h.RowSubsample = 0 }, "row_subsample_fraction"},
		{"columns", func(h *HyperParams) { h.ColumnSubsample = 2 }, "column_subsample_fraction"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := DefaultHyperParams()
			tt.mutate(&h)
			var vErr *scierrors.ValidationError
			require.True(t, scierrors.As(h.Validate(), &vErr))
			assert.Equal(t, tt.param, vErr.ParamName)
		})
	}
}

func TestLoadHyperParams(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		return path
	}

	hp, err := LoadHyperParams(write("partial.yaml", "training:\n  tree_count: 50\n  learning_rate: 0.2\n"))
	require.NoError(t, err)
	assert.Equal(t, 50, hp.TreeCount)
	assert.Equal(t, 0.2, hp.LearningRate)
	assert.Equal(t, 4, hp.MaxDepth, "omitted keys keep defaults")

	hp, err = LoadHyperParams(write("empty.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultHyperParams(), hp)

	_, err = LoadHyperParams(write("unknown.yaml", "training:\n  trees: 5\n"))
	assert.Error(t, err)

	_, err = LoadHyperParams(write("invalid.yaml", "training:\n  max_depth: 0\n"))
	var vErr *scierrors.ValidationError
	assert.True(t, scierrors.As(err, &vErr))

	_, err = LoadHyperParams(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestTrainProduction(t *testing.T) {
	ds := syntheticDataset(t, 80)

	model, err := TrainProduction(context.Background(), ds, DefaultHyperParams())
	require.NoError(t, err)

	assert.Equal(t, 100, model.NumTrees())
	assert.Equal(t, schema.Default.Columns(), model.FeatureNames)
	pred, err := model.Predict(ds.X)
	require.NoError(t, err)
	for i := 0; i < ds.Rows(); i++ {
		assert.False(t, math.IsNaN(pred.At(i, 0)))
	}
}

func TestTrainEvaluationHoldsOutRows(t *testing.T) {
	ds := syntheticDataset(t, 100)

	ev, err := TrainEvaluation(context.Background(), ds, DefaultHyperParams(), DefaultSplitConfig())
	require.NoError(t, err)

	testRows, _ := ev.XTest.Dims()
	trainRows, _ := ev.XTrain.Dims()
	assert.Equal(t, 30, testRows)
	assert.Equal(t, 70, trainRows)
	yRows, _ := ev.YTest.Dims()
	assert.Equal(t, testRows, yRows)
}

func TestTrainRejectsInvalidHyperParams(t *testing.T) {
	ds := syntheticDataset(t, 10)
	hp := DefaultHyperParams()
	hp.TreeCount = 0

	_, err := TrainProduction(context.Background(), ds, hp)
	var vErr *scierrors.ValidationError
	assert.True(t, scierrors.As(err, &vErr))
}

func TestTrainProductionCancelled(t *testing.T) {
	ds := syntheticDataset(t, 20)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := TrainProduction(ctx, ds, DefaultHyperParams())
	assert.ErrorIs(t, err, context.Canceled)
}
