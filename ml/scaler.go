package ml

import "fmt"

// StandardScaler applies (x - mean) / scale per column.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s *StandardScaler) Transform(v FeatureVector) ([]float64, error) {
	if len(s.Mean) == 0 {
		return nil, ErrNotLoaded
	}
	if len(s.Mean) != len(s.Scale) {
		return nil, fmt.Errorf("%w: scaler has %d means but %d scales", ErrShapeMismatch, len(s.Mean), len(s.Scale))
	}
	return scaleVector(v.Values(), s.Mean, s.Scale, "StandardScaler")
}

// MinMaxScaler maps each column onto [0, 1] using the fitted extremes.
type MinMaxScaler struct {
	DataMin []float64 `json:"data_min"`
	DataMax []float64 `json:"data_max"`
}

func (s *MinMaxScaler) Transform(v FeatureVector) ([]float64, error) {
	if len(s.DataMin) == 0 {
		return nil, ErrNotLoaded
	}
	if len(s.DataMin) != len(s.DataMax) {
		return nil, fmt.Errorf("%w: scaler has %d minimums but %d maximums", ErrShapeMismatch, len(s.DataMin), len(s.DataMax))
	}
	ranges := make([]float64, len(s.DataMin))
	for i := range s.DataMin {
		ranges[i] = s.DataMax[i] - s.DataMin[i]
	}
	return scaleVector(v.Values(), s.DataMin, ranges, "MinMaxScaler")
}

func scaleVector(values, offsets, divisors []float64, name string) ([]float64, error) {
	if len(values) != len(offsets) {
		return nil, fmt.Errorf("%w: X has %d features, but %s is expecting %d features as input", ErrShapeMismatch, len(values), name, len(offsets))
	}
	result := make([]float64, len(values))
	for i := range values {
		result[i] = normalizeFeature(values[i], offsets[i], divisors[i])
	}
	return result, nil
}

// A zero divisor means the column was constant during fitting; it is
// treated as 1 so the value is only shifted.
func normalizeFeature(value, offset, divisor float64) float64 {
	if divisor == 0 {
		return value - offset
	}
	return (value - offset) / divisor
}
