package ml

import (
	"errors"
	"fmt"
)

// RandomForest averages the outputs of its trees.
type RandomForest struct {
	Trees []RegressionTree `json:"trees"`
}

func (f *RandomForest) Predict(features []float64) (float64, error) {
	if len(f.Trees) == 0 {
		return 0, errors.New("forest has no trees")
	}
	sum := 0.0
	for i := range f.Trees {
		value, err := f.Trees[i].Predict(features)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		sum += value
	}
	return sum / float64(len(f.Trees)), nil
}

func (f *RandomForest) maxFeatureIdx() int {
	max := -1
	for i := range f.Trees {
		if idx := f.Trees[i].maxFeatureIdx(); idx > max {
			max = idx
		}
	}
	return max
}

// LinearModel computes intercept + coef·x.
type LinearModel struct {
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
}

func (m *LinearModel) Predict(features []float64) (float64, error) {
	if len(m.Coef) == 0 {
		return 0, ErrNotLoaded
	}
	if len(features) != len(m.Coef) {
		return 0, fmt.Errorf("%w: X has %d features, but LinearModel is expecting %d features as input", ErrShapeMismatch, len(features), len(m.Coef))
	}
	y := m.Intercept
	for i, x := range features {
		y += m.Coef[i] * x
	}
	return y, nil
}
