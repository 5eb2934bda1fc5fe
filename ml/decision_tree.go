package ml

import (
	"errors"
	"fmt"
)

// RegressionTree is a flattened binary tree. Node 0 is the root; a sample
// goes left when features[FeatureIdx] <= Threshold.
type RegressionTree struct {
	Nodes []TreeNode `json:"nodes"`
}

type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

func (t *RegressionTree) Predict(features []float64) (float64, error) {
	if len(t.Nodes) == 0 {
		return 0, errors.New("model not trained")
	}
	idx := 0
	// A well-formed tree visits each node at most once.
	for steps := 0; steps <= len(t.Nodes); steps++ {
		node := t.Nodes[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, fmt.Errorf("%w: node %d splits on feature %d of %d", ErrShapeMismatch, idx, node.FeatureIdx, len(features))
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(t.Nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
	return 0, errors.New("invalid tree state: cycle detected")
}

// maxFeatureIdx is the largest feature index any split refers to, or -1.
func (t *RegressionTree) maxFeatureIdx() int {
	max := -1
	for _, node := range t.Nodes {
		if !node.IsLeaf && node.FeatureIdx > max {
			max = node.FeatureIdx
		}
	}
	return max
}
