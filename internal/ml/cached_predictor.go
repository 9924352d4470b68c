package ml

import (
	"context"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/ipl-winprob/internal/models"
)

// CachedPredictor wraps a Predictor with a prediction cache.
// Keys include the model version, so a model swap never serves stale results.
type CachedPredictor struct {
	next    Predictor
	cache   Cache
	backend string
	logger  *logrus.Logger
}

// NewCachedPredictor creates a caching wrapper. backend labels metrics.
func NewCachedPredictor(next Predictor, c Cache, backend string, logger *logrus.Logger) *CachedPredictor {
	return &CachedPredictor{next: next, cache: c, backend: backend, logger: logger}
}

// PredictCached scores a record and reports whether the result came from cache
func (cp *CachedPredictor) PredictCached(ctx context.Context, rec models.FeatureRecord) (Probability, bool, error) {
	key := CacheKey(cp.next.Info().Version, rec)
	if p, ok := cp.cache.Get(ctx, key); ok {
		PredictionsTotal.WithLabelValues(cp.backend, "true").Inc()
		return p, true, nil
	}

	p, err := cp.next.PredictProba(ctx, rec)
	if err != nil {
		return Probability{}, false, err
	}
	cp.cache.Set(ctx, key, p)
	PredictionsTotal.WithLabelValues(cp.backend, strconv.FormatBool(false)).Inc()
	return p, false, nil
}

// PredictProba implements Predictor
func (cp *CachedPredictor) PredictProba(ctx context.Context, rec models.FeatureRecord) (Probability, error) {
	p, _, err := cp.PredictCached(ctx, rec)
	return p, err
}

// Info implements Predictor
func (cp *CachedPredictor) Info() ModelInfo {
	return cp.next.Info()
}

// Cache returns the underlying cache
func (cp *CachedPredictor) Cache() Cache {
	return cp.cache
}

// Unwrap returns the wrapped predictor
func (cp *CachedPredictor) Unwrap() Predictor {
	return cp.next
}
