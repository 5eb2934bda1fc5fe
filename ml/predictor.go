package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shopspring/decimal"
)

// PricePlaces is the number of decimal places returned to callers.
const PricePlaces = 2

// Predictor runs encode -> transform -> predict -> round. Scaler and model
// are read-only after construction, so one Predictor serves every request.
type Predictor struct {
	scaler Scaler
	model  Regressor
	cache  *lru.Cache[FeatureVector, decimal.Decimal]

	hits   atomic.Int64
	misses atomic.Int64
}

// NewPredictor builds a predictor. cacheSize <= 0 disables result caching.
func NewPredictor(scaler Scaler, model Regressor, cacheSize int) (*Predictor, error) {
	if scaler == nil || model == nil {
		return nil, errors.New("scaler and model are required")
	}
	p := &Predictor{scaler: scaler, model: model}
	if cacheSize > 0 {
		cache, err := lru.New[FeatureVector, decimal.Decimal](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create prediction cache: %w", err)
		}
		p.cache = cache
	}
	return p, nil
}

// LoadPredictor loads both artifacts from disk.
func LoadPredictor(scalerPath, modelPath string, cacheSize int) (*Predictor, error) {
	scaler, err := LoadScaler(scalerPath)
	if err != nil {
		return nil, fmt.Errorf("load scaler: %w", err)
	}
	model, err := LoadModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return NewPredictor(scaler, model, cacheSize)
}

func (p *Predictor) Predict(ctx context.Context, req PredictionRequest) (decimal.Decimal, error) {
	return p.PredictVector(ctx, Encode(req))
}

func (p *Predictor) PredictVector(ctx context.Context, v FeatureVector) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	if p.cache != nil {
		if price, ok := p.cache.Get(v); ok {
			p.hits.Add(1)
			return price, nil
		}
		p.misses.Add(1)
	}

	normalized, err := p.scaler.Transform(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("transform: %w", err)
	}
	raw, err := p.model.Predict(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("predict: %w", err)
	}
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return decimal.Zero, fmt.Errorf("predict: model returned %v", raw)
	}
	price := RoundPrice(raw)

	if p.cache != nil {
		p.cache.Add(v, price)
	}
	return price, nil
}

// CacheStats reports cache hits and misses since start.
func (p *Predictor) CacheStats() (hits, misses int64) {
	return p.hits.Load(), p.misses.Load()
}

// RoundPrice rounds the exact binary value to two places, ties to even, so
// 2.675 (stored as 2.67499...) gives 2.67. value must be finite.
func RoundPrice(value float64) decimal.Decimal {
	return decimal.RequireFromString(strconv.FormatFloat(value, 'f', PricePlaces, 64))
}

// FormatPrice renders a price with at least one decimal place and no
// trailing zeros: "114.0", "1234.5", "157.12".
func FormatPrice(price decimal.Decimal) string {
	s := price.String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
