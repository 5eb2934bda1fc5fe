package ml

import "errors"

var (
	ErrShapeMismatch = errors.New("feature shape mismatch")
	ErrUnknownKind   = errors.New("unsupported artifact kind")
	ErrNotLoaded     = errors.New("artifact not loaded")
)

// Scaler normalizes an encoded vector the way the training pipeline did.
type Scaler interface {
	Transform(v FeatureVector) ([]float64, error)
}

// Regressor maps a normalized vector to a price.
type Regressor interface {
	Predict(features []float64) (float64, error)
}
