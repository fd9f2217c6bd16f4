package ensemble

import (
	"math"

	"gonum.org/v1/gonum/mat"

	scierrors "github.com/YuminosukeSato/antiox/pkg/errors"
)

// NodeType represents the type of a tree node
type NodeType int

const (
	// LeafNode represents a terminal node with a value
	LeafNode NodeType = iota
	// NumericalNode represents a node with a numerical split
	NumericalNode
)

// Node represents a single node in a decision tree.
// Samples with feature value <= Threshold go left.
type Node struct {
	NodeID     int
	ParentID   int // -1 for root
	LeftChild  int // -1 if leaf
	RightChild int // -1 if leaf
	NodeType   NodeType

	SplitFeature int
	Threshold    float64
	Gain         float64

	LeafValue float64
	Count     int // training samples that reached this node
}

// IsLeaf returns true if the node is a leaf node
func (n *Node) IsLeaf() bool {
	return n.LeftChild == -1 && n.RightChild == -1
}

// Tree represents a single decision tree in the ensemble
type Tree struct {
	TreeIndex     int
	NumLeaves     int
	ShrinkageRate float64 // learning rate applied to this tree
	Nodes         []Node
}

// Predict returns the shrunk leaf value reached by features.
func (t *Tree) Predict(features []float64) float64 {
	nodeID := 0
	for nodeID >= 0 && nodeID < len(t.Nodes) {
		node := &t.Nodes[nodeID]
		if node.IsLeaf() {
			return node.LeafValue * t.ShrinkageRate
		}
		if features[node.SplitFeature] <= node.Threshold {
			nodeID = node.LeftChild
		} else {
			nodeID = node.RightChild
		}
	}
	return 0.0
}

// Model is a fitted boosted tree ensemble. It is immutable once returned
// by the trainer and safe for concurrent prediction.
type Model struct {
	Objective    ObjectiveType
	NumFeatures  int
	FeatureNames []string
	Params       TrainingParams
	InitScore    float64
	Trees        []Tree
}

// NumTrees returns the number of boosting rounds in the ensemble.
func (m *Model) NumTrees() int {
	return len(m.Trees)
}

// PredictSingle predicts one sample. features must have NumFeatures entries.
func (m *Model) PredictSingle(features []float64) float64 {
	pred := m.InitScore
	for i := range m.Trees {
		pred += m.Trees[i].Predict(features)
	}
	return pred
}

// Predict makes predictions for a batch of samples and returns a rows x 1 matrix.
func (m *Model) Predict(X mat.Matrix) (*mat.Dense, error) {
	rows, cols := X.Dims()
	if cols != m.NumFeatures {
		return nil, scierrors.NewDimensionError("Model.Predict", m.NumFeatures, cols, 1)
	}

	predictions := mat.NewDense(rows, 1, nil)
	features := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(features, i, X)
		predictions.Set(i, 0, m.PredictSingle(features))
	}
	return predictions, nil
}

// GetFeatureImportance calculates normalised feature importance scores.
// importanceType is "gain" (sum of split gains) or "split" (split count).
func (m *Model) GetFeatureImportance(importanceType string) []float64 {
	importance := make([]float64, m.NumFeatures)

	for _, tree := range m.Trees {
		for _, node := range tree.Nodes {
			if node.IsLeaf() {
				continue
			}
			switch importanceType {
			case "split":
				importance[node.SplitFeature]++
			case "gain":
				importance[node.SplitFeature] += node.Gain
			}
		}
	}

	total := 0.0
	for _, v := range importance {
		total += v
	}
	if total > 0 {
		for i := range importance {
			importance[i] /= total
		}
	}
	return importance
}

// validate checks structural integrity of a decoded model.
func (m *Model) validate() error {
	if m.NumFeatures <= 0 {
		return scierrors.NewModelError("Model.validate", "model has no features", nil)
	}
	if len(m.FeatureNames) != 0 && len(m.FeatureNames) != m.NumFeatures {
		return scierrors.NewDimensionError("Model.validate", m.NumFeatures, len(m.FeatureNames), 1)
	}
	if math.IsNaN(m.InitScore) || math.IsInf(m.InitScore, 0) {
		return scierrors.NewModelError("Model.validate", "non-finite init score", nil)
	}
	for ti, tree := range m.Trees {
		if len(tree.Nodes) == 0 {
			return scierrors.NewModelError("Model.validate", "empty tree", scierrors.Newf("tree %d", ti))
		}
		for _, node := range tree.Nodes {
			if node.IsLeaf() {
				continue
			}
			if node.SplitFeature < 0 || node.SplitFeature >= m.NumFeatures {
				return scierrors.NewModelError("Model.validate", "split feature out of range",
					scierrors.Newf("tree %d node %d feature %d", ti, node.NodeID, node.SplitFeature))
			}
			if node.LeftChild <= node.NodeID || node.LeftChild >= len(tree.Nodes) ||
				node.RightChild <= node.NodeID || node.RightChild >= len(tree.Nodes) {
				return scierrors.NewModelError("Model.validate", "child index out of range",
					scierrors.Newf("tree %d node %d", ti, node.NodeID))
			}
		}
	}
	return nil
}
