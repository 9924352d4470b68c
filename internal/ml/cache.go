// Package ml provides caching for model predictions.
package ml

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/ipl-winprob/internal/models"
)

// Cache stores predictions keyed by model version and feature record
type Cache interface {
	Get(ctx context.Context, key string) (Probability, bool)
	Set(ctx context.Context, key string, p Probability)
	Clear(ctx context.Context) (int, error)
	Stats() (hits, misses uint64, ratio float64)
	Backend() string
}

// CacheKey builds a deterministic key for a record scored by a model version
func CacheKey(modelVersion string, rec models.FeatureRecord) string {
	var b strings.Builder
	b.WriteString(modelVersion)

	cats := make([]string, 0, len(rec.Categorical))
	for k := range rec.Categorical {
		cats = append(cats, k)
	}
	sort.Strings(cats)
	for _, k := range cats {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(rec.Categorical[k])
	}

	nums := make([]string, 0, len(rec.Numeric))
	for k := range rec.Numeric {
		nums = append(nums, k)
	}
	sort.Strings(nums)
	for _, k := range nums {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(rec.Numeric[k], 'g', 10, 64))
	}
	return b.String()
}

type hitCounter struct {
	hits   atomic.Uint64
	misses atomic.Uint64
}

func (c *hitCounter) record(hit bool, backend string) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	_, _, ratio := c.stats()
	CacheHitRatio.WithLabelValues(backend).Set(ratio)
}

func (c *hitCounter) stats() (hits, misses uint64, ratio float64) {
	hits = c.hits.Load()
	misses = c.misses.Load()
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return hits, misses, ratio
}

func (c *hitCounter) reset() {
	c.hits.Store(0)
	c.misses.Store(0)
}

// PredictionCache provides in-memory caching for predictions
type PredictionCache struct {
	cache   *cache.Cache
	ttl     time.Duration
	maxSize int
	counter hitCounter
}

// NewPredictionCache creates a new prediction cache
func NewPredictionCache(ttl time.Duration, maxSize int) *PredictionCache {
	return &PredictionCache{
		cache:   cache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves a cached prediction
func (pc *PredictionCache) Get(_ context.Context, key string) (Probability, bool) {
	if v, found := pc.cache.Get(key); found {
		if p, ok := v.(Probability); ok {
			pc.counter.record(true, CacheBackendMemory)
			return p, true
		}
	}
	pc.counter.record(false, CacheBackendMemory)
	return Probability{}, false
}

// Set stores a prediction. When the cache is full expired entries are dropped first,
// and if it is still full the entry is not stored.
func (pc *PredictionCache) Set(_ context.Context, key string, p Probability) {
	if pc.cache.ItemCount() >= pc.maxSize {
		pc.cache.DeleteExpired()
		if pc.cache.ItemCount() >= pc.maxSize {
			return
		}
	}
	pc.cache.Set(key, p, pc.ttl)
}

// Clear flushes the entire cache
func (pc *PredictionCache) Clear(_ context.Context) (int, error) {
	n := pc.cache.ItemCount()
	pc.cache.Flush()
	pc.counter.reset()
	return n, nil
}

// DeleteExpired drops expired entries
func (pc *PredictionCache) DeleteExpired() {
	pc.cache.DeleteExpired()
}

// Stats returns cache statistics
func (pc *PredictionCache) Stats() (hits, misses uint64, ratio float64) {
	return pc.counter.stats()
}

// ItemCount returns the number of items in cache
func (pc *PredictionCache) ItemCount() int {
	return pc.cache.ItemCount()
}

// Backend implements Cache
func (pc *PredictionCache) Backend() string {
	return CacheBackendMemory
}

// Cache backend names
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)
