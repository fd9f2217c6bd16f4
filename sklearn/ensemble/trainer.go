package ensemble

import (
	"context"
	"math"
	"math/rand/v2"
	"slices"
	"sort"

	"gonum.org/v1/gonum/mat"

	scierrors "github.com/YuminosukeSato/antiox/pkg/errors"
	"github.com/YuminosukeSato/antiox/pkg/log"
)

// Trainer implements gradient boosting over depth-limited regression trees.
type Trainer struct {
	params TrainingParams

	X *mat.Dense
	y []float64

	gradients   []float64
	hessians    []float64
	predictions []float64 // cached ensemble output per training row

	trees     []Tree
	iteration int

	objective ObjectiveFunction
	initScore float64
	rng       *rand.Rand

	featureNames []string
	logger       log.Logger
}

// SplitInfo contains information about a potential split
type SplitInfo struct {
	Feature    int
	Threshold  float64
	Gain       float64
	LeftCount  int
	RightCount int
}

// NewTrainer creates a trainer. Zero-valued sampling fractions and
// MinDataInLeaf fall back to their neutral values.
func NewTrainer(params TrainingParams) *Trainer {
	if params.MinDataInLeaf == 0 {
		params.MinDataInLeaf = 1
	}
	if params.Subsample == 0 {
		params.Subsample = 1.0
	}
	if params.ColsampleByTree == 0 {
		params.ColsampleByTree = 1.0
	}
	if params.Objective == "" {
		params.Objective = string(RegressionL2)
	}
	return &Trainer{
		params: params,
		logger: log.GetLoggerWithName("ensemble.trainer"),
	}
}

// WithFeatureNames records column names on the produced model.
func (t *Trainer) WithFeatureNames(names []string) *Trainer {
	t.featureNames = slices.Clone(names)
	return t
}

// Fit trains on X (rows x features) and y (rows x 1). The context is
// checked between boosting rounds.
func (t *Trainer) Fit(ctx context.Context, X, y mat.Matrix) error {
	if err := t.params.Validate(); err != nil {
		return err
	}

	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 || cols == 0 {
		return scierrors.Wrap(scierrors.ErrEmptyData, "Trainer.Fit")
	}
	if yRows != rows {
		return scierrors.NewDimensionError("Trainer.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return scierrors.NewDimensionError("Trainer.Fit", 1, yCols, 1)
	}
	if t.featureNames != nil && len(t.featureNames) != cols {
		return scierrors.NewDimensionError("Trainer.Fit", len(t.featureNames), cols, 1)
	}

	t.X = mat.DenseCopyOf(X)
	t.y = mat.Col(nil, 0, y)
	if err := scierrors.CheckNumericalStability("Trainer.Fit", t.X.RawMatrix().Data, 0); err != nil {
		return err
	}
	if err := scierrors.CheckNumericalStability("Trainer.Fit", t.y, 0); err != nil {
		return err
	}

	objFunc, err := CreateObjectiveFunction(t.params.Objective)
	if err != nil {
		return err
	}
	t.objective = objFunc
	t.initialize()

	for iter := 0; iter < t.params.NumIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return scierrors.Wrapf(err, "training aborted at iteration %d", iter)
		}
		t.iteration = iter

		t.calculateGradients()
		tree := t.buildTree()
		t.trees = append(t.trees, tree)
		t.updatePredictions(&tree)

		loss := t.calculateLoss()
		if err := scierrors.CheckScalar("Trainer.Fit", loss, iter); err != nil {
			return err
		}
		if iter%10 == 0 && t.logger.Enabled(ctx, log.LevelDebug) {
			t.logger.Debug("Training progress",
				log.IterationKey, iter,
				"loss", loss,
				"num_leaves", tree.NumLeaves)
		}
	}
	return nil
}

func (t *Trainer) initialize() {
	rows := len(t.y)
	t.gradients = make([]float64, rows)
	t.hessians = make([]float64, rows)
	t.trees = nil
	t.initScore = t.objective.GetInitScore(t.y)
	t.predictions = make([]float64, rows)
	for i := range t.predictions {
		t.predictions[i] = t.initScore
	}
	seed := uint64(t.params.Seed)
	t.rng = rand.New(rand.NewPCG(seed, seed))
}

// calculateGradients computes gradients and hessians for current predictions
func (t *Trainer) calculateGradients() {
	for i, target := range t.y {
		t.gradients[i] = t.objective.CalculateGradient(t.predictions[i], target)
		t.hessians[i] = t.objective.CalculateHessian(t.predictions[i], target)
	}
}

// sampleRows draws the per-tree row subset without replacement.
func (t *Trainer) sampleRows() []int {
	rows := len(t.y)
	if t.params.Subsample >= 1.0 {
		indices := make([]int, rows)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}
	n := max(1, int(math.Round(float64(rows)*t.params.Subsample)))
	indices := t.rng.Perm(rows)[:n]
	sort.Ints(indices)
	return indices
}

// sampleFeatures draws the per-tree column subset.
func (t *Trainer) sampleFeatures() []int {
	_, cols := t.X.Dims()
	if t.params.ColsampleByTree >= 1.0 {
		features := make([]int, cols)
		for j := range features {
			features[j] = j
		}
		return features
	}
	n := max(1, int(float64(cols)*t.params.ColsampleByTree))
	features := t.rng.Perm(cols)[:n]
	sort.Ints(features)
	return features
}

// buildTree constructs a single decision tree
func (t *Trainer) buildTree() Tree {
	tree := Tree{
		TreeIndex:     t.iteration,
		ShrinkageRate: t.params.LearningRate,
	}
	rootIndices := t.sampleRows()
	features := t.sampleFeatures()

	t.buildNode(&tree, rootIndices, features, -1, 0)

	for _, node := range tree.Nodes {
		if node.IsLeaf() {
			tree.NumLeaves++
		}
	}
	return tree
}

// buildNode recursively builds tree nodes in pre-order.
func (t *Trainer) buildNode(tree *Tree, indices, features []int, parentIdx, depth int) int {
	nodeIdx := len(tree.Nodes)

	if depth < t.params.MaxDepth && len(indices) >= 2*t.params.MinDataInLeaf {
		split := t.findBestSplit(indices, features)
		if split.Gain > t.params.MinGainToSplit && split.Gain > 0 {
			tree.Nodes = append(tree.Nodes, Node{
				NodeID:       nodeIdx,
				ParentID:     parentIdx,
				NodeType:     NumericalNode,
				SplitFeature: split.Feature,
				Threshold:    split.Threshold,
				Gain:         split.Gain,
				Count:        len(indices),
			})

			leftIndices, rightIndices := t.splitData(indices, split)
			leftChild := t.buildNode(tree, leftIndices, features, nodeIdx, depth+1)
			rightChild := t.buildNode(tree, rightIndices, features, nodeIdx, depth+1)

			tree.Nodes[nodeIdx].LeftChild = leftChild
			tree.Nodes[nodeIdx].RightChild = rightChild
			return nodeIdx
		}
	}

	tree.Nodes = append(tree.Nodes, Node{
		NodeID:     nodeIdx,
		ParentID:   parentIdx,
		NodeType:   LeafNode,
		LeafValue:  t.calculateLeafValue(indices),
		Count:      len(indices),
		LeftChild:  -1,
		RightChild: -1,
	})
	return nodeIdx
}

// findBestSplit finds the best split among the sampled features.
func (t *Trainer) findBestSplit(indices, features []int) SplitInfo {
	bestSplit := SplitInfo{Gain: -math.MaxFloat64}
	for _, j := range features {
		split := t.findBestSplitForFeature(indices, j)
		if split.Gain > bestSplit.Gain {
			bestSplit = split
		}
	}
	return bestSplit
}

type valueIndex struct {
	value float64
	idx   int
}

// findBestSplitForFeature scans the sorted feature values for the
// threshold with the highest gain.
func (t *Trainer) findBestSplitForFeature(indices []int, feature int) SplitInfo {
	values := make([]valueIndex, len(indices))
	totalGrad, totalHess := 0.0, 0.0
	for i, idx := range indices {
		values[i] = valueIndex{value: t.X.At(idx, feature), idx: idx}
		totalGrad += t.gradients[idx]
		totalHess += t.hessians[idx]
	}
	sort.SliceStable(values, func(i, j int) bool {
		return values[i].value < values[j].value
	})

	bestSplit := SplitInfo{Feature: feature, Gain: -math.MaxFloat64}
	leftGrad, leftHess := 0.0, 0.0
	for i := 0; i < len(values)-1; i++ {
		idx := values[i].idx
		leftGrad += t.gradients[idx]
		leftHess += t.hessians[idx]
		leftCount := i + 1

		if values[i].value == values[i+1].value {
			continue
		}
		rightCount := len(values) - leftCount
		if leftCount < t.params.MinDataInLeaf || rightCount < t.params.MinDataInLeaf {
			continue
		}

		gain := t.calculateSplitGain(leftGrad, leftHess, totalGrad-leftGrad, totalHess-leftHess, totalGrad, totalHess)
		if gain > bestSplit.Gain {
			bestSplit.Gain = gain
			bestSplit.Threshold = (values[i].value + values[i+1].value) / 2
			bestSplit.LeftCount = leftCount
			bestSplit.RightCount = rightCount
		}
	}
	return bestSplit
}

// calculateSplitGain is the structure score improvement of a split, with
// gradient sums soft-thresholded by the L1 penalty.
func (t *Trainer) calculateSplitGain(leftGrad, leftHess, rightGrad, rightHess, totalGrad, totalHess float64) float64 {
	return 0.5 * (t.score(leftGrad, leftHess) + t.score(rightGrad, rightHess) - t.score(totalGrad, totalHess))
}

func (t *Trainer) score(grad, hess float64) float64 {
	g := scierrors.SoftThreshold(grad, t.params.Alpha)
	return g * g / (hess + t.params.Lambda + 1e-10)
}

// splitData splits indices based on a split decision
func (t *Trainer) splitData(indices []int, split SplitInfo) ([]int, []int) {
	leftIndices := make([]int, 0, split.LeftCount)
	rightIndices := make([]int, 0, split.RightCount)
	for _, idx := range indices {
		if t.X.At(idx, split.Feature) <= split.Threshold {
			leftIndices = append(leftIndices, idx)
		} else {
			rightIndices = append(rightIndices, idx)
		}
	}
	return leftIndices, rightIndices
}

// calculateLeafValue returns the regularised optimal leaf weight.
func (t *Trainer) calculateLeafValue(indices []int) float64 {
	sumGrad, sumHess := 0.0, 0.0
	for _, idx := range indices {
		sumGrad += t.gradients[idx]
		sumHess += t.hessians[idx]
	}
	g := scierrors.SoftThreshold(sumGrad, t.params.Alpha)
	if g == 0 {
		return 0
	}
	return -g / (sumHess + t.params.Lambda + 1e-10)
}

// updatePredictions adds the new tree's output to every cached row prediction.
func (t *Trainer) updatePredictions(tree *Tree) {
	rows, cols := t.X.Dims()
	features := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(features, i, t.X)
		t.predictions[i] += tree.Predict(features)
	}
}

// calculateLoss calculates the mean training loss
func (t *Trainer) calculateLoss() float64 {
	loss := 0.0
	for i, target := range t.y {
		loss += t.objective.CalculateLoss(t.predictions[i], target)
	}
	return loss / float64(len(t.y))
}

// TrainingLoss returns the mean loss of the current ensemble on the training rows.
func (t *Trainer) TrainingLoss() float64 {
	if len(t.y) == 0 {
		return math.NaN()
	}
	return t.calculateLoss()
}

// GetModel returns the trained model
func (t *Trainer) GetModel() *Model {
	_, cols := t.X.Dims()
	return &Model{
		Objective:    ObjectiveType(t.objective.Name()),
		NumFeatures:  cols,
		FeatureNames: slices.Clone(t.featureNames),
		Params:       t.params,
		InitScore:    t.initScore,
		Trees:        slices.Clone(t.trees),
	}
}
