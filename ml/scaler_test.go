package ml

import (
	"errors"
	"testing"
)

func identityScaler() *StandardScaler {
	s := &StandardScaler{
		Mean:  make([]float64, FeatureWidth),
		Scale: make([]float64, FeatureWidth),
	}
	for i := range s.Scale {
		s.Scale[i] = 1
	}
	return s
}

func TestStandardScalerTransform(t *testing.T) {
	s := identityScaler()
	s.Mean[24] = 1
	s.Scale[24] = 2
	s.Scale[26] = 0

	out, err := s.Transform(Encode(scenarioRequest()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != FeatureWidth {
		t.Fatalf("unexpected vector length: %d", len(out))
	}
	if out[24] != 3 {
		t.Fatalf("expected (7-1)/2 = 3, got %v", out[24])
	}
	if out[26] != 5 {
		t.Fatalf("zero scale should leave value shifted only, got %v", out[26])
	}
	if out[1] != 1 || out[0] != 0 {
		t.Fatalf("unexpected indicator values: %v", out[:2])
	}
}

func TestStandardScalerWidthMismatch(t *testing.T) {
	s := &StandardScaler{Mean: make([]float64, 26), Scale: make([]float64, 26)}
	_, err := s.Transform(Encode(scenarioRequest()))
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
	if _, err := (&StandardScaler{}).Transform(FeatureVector{}); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
}

func TestMinMaxScalerTransform(t *testing.T) {
	s := &MinMaxScaler{
		DataMin: make([]float64, FeatureWidth),
		DataMax: make([]float64, FeatureWidth),
	}
	for i := range s.DataMax {
		s.DataMax[i] = 1
	}
	s.DataMin[24], s.DataMax[24] = 1, 53
	s.DataMin[25], s.DataMax[25] = 1, 7
	s.DataMin[26], s.DataMax[26] = 1, 31

	out, err := s.Transform(Encode(PredictionRequest{From: Recife, Destination: Aracaju, FlightType: Premium, Agency: CloudFy, Day: 31, WeekNo: 1, WeekDay: 7}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, value := range out {
		if value < 0 || value > 1 {
			t.Fatalf("expected normalized value between 0 and 1 at %d, got %f", i, value)
		}
	}
	if out[24] != 0 || out[25] != 1 || out[26] != 1 {
		t.Fatalf("unexpected temporal values: %v", out[24:])
	}
}
