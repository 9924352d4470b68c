package ml

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ipl-winprob/internal/models"
)

type countingPredictor struct {
	calls   atomic.Int32
	version string
}

func (c *countingPredictor) PredictProba(_ context.Context, _ models.FeatureRecord) (Probability, error) {
	c.calls.Add(1)
	return NewProbability(0.7), nil
}

func (c *countingPredictor) Info() ModelInfo {
	return ModelInfo{Version: c.version}
}

func TestCacheKeyDeterministic(t *testing.T) {
	a := CacheKey("v1", testRecord("A", 50, 60))
	b := CacheKey("v1", testRecord("A", 50, 60))
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, CacheKey("v2", testRecord("A", 50, 60)))
	assert.NotEqual(t, a, CacheKey("v1", testRecord("A", 50, 61)))
	assert.NotEqual(t, a, CacheKey("v1", testRecord("B", 50, 60)))
}

func TestPredictionCacheHitMiss(t *testing.T) {
	ctx := context.Background()
	c := NewPredictionCache(time.Minute, 10)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	c.Set(ctx, "k", NewProbability(0.4))
	p, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, 0.4, p.BattingWin)

	hits, misses, ratio := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)
	assert.Equal(t, 0.5, ratio)
	assert.Equal(t, 1, c.ItemCount())

	n, err := c.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, c.ItemCount())
	hits, _, _ = c.Stats()
	assert.Zero(t, hits)
}

func TestPredictionCacheMaxSize(t *testing.T) {
	ctx := context.Background()
	c := NewPredictionCache(time.Minute, 2)

	c.Set(ctx, "a", NewProbability(0.1))
	c.Set(ctx, "b", NewProbability(0.2))
	c.Set(ctx, "c", NewProbability(0.3))

	assert.Equal(t, 2, c.ItemCount())
	_, ok := c.Get(ctx, "c")
	assert.False(t, ok)
}

func TestCachedPredictor(t *testing.T) {
	ctx := context.Background()
	next := &countingPredictor{version: "v1"}
	cp := NewCachedPredictor(next, NewPredictionCache(time.Minute, 100), BackendLocal, quietLogger())

	p, cached, err := cp.PredictCached(ctx, testRecord("A", 50, 60))
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 0.7, p.BattingWin)

	p, cached, err = cp.PredictCached(ctx, testRecord("A", 50, 60))
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 0.7, p.BattingWin)
	assert.Equal(t, int32(1), next.calls.Load())

	next.version = "v2"
	_, cached, err = cp.PredictCached(ctx, testRecord("A", 50, 60))
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, int32(2), next.calls.Load())
	assert.Equal(t, "v2", cp.Info().Version)
}

func TestRedisPredictionCache(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	c := NewRedisPredictionCache(client, time.Minute, quietLogger())
	require.NoError(t, c.Ping(ctx))
	_, err := c.Clear(ctx)
	require.NoError(t, err)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	c.Set(ctx, "k", NewProbability(0.25))
	p, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, 0.25, p.BattingWin)

	n, err := c.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
