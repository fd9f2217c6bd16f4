package ensemble

import (
	"encoding/json"
	"io"

	scierrors "github.com/YuminosukeSato/antiox/pkg/errors"
)

// JSONModel is the serialised form of a Model.
type JSONModel struct {
	Objective    string         `json:"objective"`
	NumFeatures  int            `json:"num_features"`
	FeatureNames []string       `json:"feature_names"`
	Params       TrainingParams `json:"params"`
	InitScore    float64        `json:"init_score"`
	TreeInfo     []JSONTreeInfo `json:"tree_info"`
}

// JSONTreeInfo represents information about a single tree
type JSONTreeInfo struct {
	TreeIndex     int          `json:"tree_index"`
	NumLeaves     int          `json:"num_leaves"`
	Shrinkage     float64      `json:"shrinkage"`
	TreeStructure JSONTreeNode `json:"tree_structure"`
}

// JSONTreeNode represents a node in the tree. Internal nodes carry both
// children; leaves carry neither.
type JSONTreeNode struct {
	SplitFeature int           `json:"split_feature,omitempty"`
	SplitGain    float64       `json:"split_gain,omitempty"`
	Threshold    float64       `json:"threshold,omitempty"`
	LeftChild    *JSONTreeNode `json:"left_child,omitempty"`
	RightChild   *JSONTreeNode `json:"right_child,omitempty"`

	LeafValue float64 `json:"leaf_value,omitempty"`
	Count     int     `json:"count,omitempty"`
}

// ToJSONModel converts the flat node storage into nested tree structures.
func (m *Model) ToJSONModel() *JSONModel {
	jm := &JSONModel{
		Objective:    string(m.Objective),
		NumFeatures:  m.NumFeatures,
		FeatureNames: m.FeatureNames,
		Params:       m.Params,
		InitScore:    m.InitScore,
		TreeInfo:     make([]JSONTreeInfo, 0, len(m.Trees)),
	}
	for i := range m.Trees {
		tree := &m.Trees[i]
		info := JSONTreeInfo{
			TreeIndex: tree.TreeIndex,
			NumLeaves: tree.NumLeaves,
			Shrinkage: tree.ShrinkageRate,
		}
		if len(tree.Nodes) > 0 {
			info.TreeStructure = *toJSONNode(tree, 0)
		}
		jm.TreeInfo = append(jm.TreeInfo, info)
	}
	return jm
}

func toJSONNode(tree *Tree, idx int) *JSONTreeNode {
	node := &tree.Nodes[idx]
	if node.IsLeaf() {
		return &JSONTreeNode{LeafValue: node.LeafValue, Count: node.Count}
	}
	return &JSONTreeNode{
		SplitFeature: node.SplitFeature,
		SplitGain:    node.Gain,
		Threshold:    node.Threshold,
		Count:        node.Count,
		LeftChild:    toJSONNode(tree, node.LeftChild),
		RightChild:   toJSONNode(tree, node.RightChild),
	}
}

// FromJSONModel rebuilds a Model and validates its structure.
func FromJSONModel(jm *JSONModel) (*Model, error) {
	m := &Model{
		Objective:    ObjectiveType(jm.Objective),
		NumFeatures:  jm.NumFeatures,
		FeatureNames: jm.FeatureNames,
		Params:       jm.Params,
		InitScore:    jm.InitScore,
		Trees:        make([]Tree, 0, len(jm.TreeInfo)),
	}
	if _, err := CreateObjectiveFunction(jm.Objective); err != nil {
		return nil, scierrors.NewModelError("FromJSONModel", "unsupported objective", err)
	}
	for _, info := range jm.TreeInfo {
		tree := Tree{
			TreeIndex:     info.TreeIndex,
			NumLeaves:     info.NumLeaves,
			ShrinkageRate: info.Shrinkage,
		}
		fromJSONNode(&tree, &info.TreeStructure, -1)
		m.Trees = append(m.Trees, tree)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// fromJSONNode appends nodes in pre-order, matching the trainer's layout.
func fromJSONNode(tree *Tree, jn *JSONTreeNode, parent int) int {
	idx := len(tree.Nodes)
	if jn.LeftChild == nil || jn.RightChild == nil {
		tree.Nodes = append(tree.Nodes, Node{
			NodeID:     idx,
			ParentID:   parent,
			LeftChild:  -1,
			RightChild: -1,
			NodeType:   LeafNode,
			LeafValue:  jn.LeafValue,
			Count:      jn.Count,
		})
		return idx
	}
	tree.Nodes = append(tree.Nodes, Node{
		NodeID:       idx,
		ParentID:     parent,
		NodeType:     NumericalNode,
		SplitFeature: jn.SplitFeature,
		Threshold:    jn.Threshold,
		Gain:         jn.SplitGain,
		Count:        jn.Count,
	})
	left := fromJSONNode(tree, jn.LeftChild, idx)
	right := fromJSONNode(tree, jn.RightChild, idx)
	tree.Nodes[idx].LeftChild = left
	tree.Nodes[idx].RightChild = right
	return idx
}

// WriteJSON encodes the model to w.
func (m *Model) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m.ToJSONModel()); err != nil {
		return scierrors.NewModelError("Model.WriteJSON", "encode failed", err)
	}
	return nil
}

// ReadJSON decodes a model written by WriteJSON.
func ReadJSON(r io.Reader) (*Model, error) {
	var jm JSONModel
	if err := json.NewDecoder(r).Decode(&jm); err != nil {
		return nil, scierrors.NewModelError("ReadJSON", "failed to parse JSON", err)
	}
	return FromJSONModel(&jm)
}
