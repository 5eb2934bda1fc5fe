package ml

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	KindStandardScaler = "standard_scaler"
	KindMinMaxScaler   = "minmax_scaler"
	KindRandomForest   = "random_forest"
	KindDecisionTree   = "decision_tree"
	KindLinear         = "linear"
)

// artifactHeader is shared by every exported artifact document.
type artifactHeader struct {
	Kind         string   `json:"kind"`
	FeatureNames []string `json:"feature_names,omitempty"`
	NFeatures    int      `json:"n_features,omitempty"`
}

func LoadScaler(path string) (Scaler, error) {
	header, payload, err := readArtifact(path)
	if err != nil {
		return nil, err
	}
	switch header.Kind {
	case KindStandardScaler:
		scaler := &StandardScaler{}
		if err := json.Unmarshal(payload, scaler); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		if err := checkWidth(path, len(scaler.Mean), len(scaler.Scale)); err != nil {
			return nil, err
		}
		return scaler, nil
	case KindMinMaxScaler:
		scaler := &MinMaxScaler{}
		if err := json.Unmarshal(payload, scaler); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		if err := checkWidth(path, len(scaler.DataMin), len(scaler.DataMax)); err != nil {
			return nil, err
		}
		return scaler, nil
	default:
		return nil, fmt.Errorf("%s: %w %q", path, ErrUnknownKind, header.Kind)
	}
}

func LoadModel(path string) (Regressor, error) {
	header, payload, err := readArtifact(path)
	if err != nil {
		return nil, err
	}
	switch header.Kind {
	case KindRandomForest:
		model := &RandomForest{}
		if err := json.Unmarshal(payload, model); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		if len(model.Trees) == 0 {
			return nil, fmt.Errorf("%s: forest has no trees", path)
		}
		if idx := model.maxFeatureIdx(); idx >= FeatureWidth {
			return nil, fmt.Errorf("%s: %w: split on feature %d", path, ErrShapeMismatch, idx)
		}
		return model, nil
	case KindDecisionTree:
		model := &RegressionTree{}
		if err := json.Unmarshal(payload, model); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		if len(model.Nodes) == 0 {
			return nil, fmt.Errorf("%s: tree has no nodes", path)
		}
		if idx := model.maxFeatureIdx(); idx >= FeatureWidth {
			return nil, fmt.Errorf("%s: %w: split on feature %d", path, ErrShapeMismatch, idx)
		}
		return model, nil
	case KindLinear:
		model := &LinearModel{}
		if err := json.Unmarshal(payload, model); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		if err := checkWidth(path, len(model.Coef)); err != nil {
			return nil, err
		}
		return model, nil
	default:
		return nil, fmt.Errorf("%s: %w %q", path, ErrUnknownKind, header.Kind)
	}
}

func readArtifact(path string) (artifactHeader, []byte, error) {
	var header artifactHeader
	payload, err := os.ReadFile(path)
	if err != nil {
		return header, nil, fmt.Errorf("read artifact: %w", err)
	}
	if err := json.Unmarshal(payload, &header); err != nil {
		return header, nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if header.NFeatures != 0 && header.NFeatures != FeatureWidth {
		return header, nil, fmt.Errorf("%s: %w: fit on %d features, encoder produces %d", path, ErrShapeMismatch, header.NFeatures, FeatureWidth)
	}
	if len(header.FeatureNames) > 0 {
		if err := checkFeatureNames(header.FeatureNames); err != nil {
			return header, nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return header, payload, nil
}

func checkFeatureNames(names []string) error {
	if len(names) != FeatureWidth {
		return fmt.Errorf("%w: %d feature names, encoder produces %d", ErrShapeMismatch, len(names), FeatureWidth)
	}
	for i, name := range names {
		if name != featureNames[i] {
			return fmt.Errorf("%w: column %d is %q, encoder produces %q", ErrShapeMismatch, i, name, featureNames[i])
		}
	}
	return nil
}

func checkWidth(path string, widths ...int) error {
	for _, w := range widths {
		if w != FeatureWidth {
			return fmt.Errorf("%s: %w: artifact has %d columns, encoder produces %d", path, ErrShapeMismatch, w, FeatureWidth)
		}
	}
	return nil
}
