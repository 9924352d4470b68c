package ml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultRedisPrefix namespaces prediction keys
const DefaultRedisPrefix = "winprob:pred:"

// RedisPredictionCache shares predictions between API replicas through Redis
type RedisPredictionCache struct {
	client  redis.UniversalClient
	ttl     time.Duration
	prefix  string
	logger  *logrus.Logger
	counter hitCounter
}

// NewRedisPredictionCache creates a Redis-backed cache. The client is not pinged here.
func NewRedisPredictionCache(client redis.UniversalClient, ttl time.Duration, logger *logrus.Logger) *RedisPredictionCache {
	return &RedisPredictionCache{
		client: client,
		ttl:    ttl,
		prefix: DefaultRedisPrefix,
		logger: logger,
	}
}

// Ping checks connectivity
func (rc *RedisPredictionCache) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// Get retrieves a cached prediction. Redis errors count as misses.
func (rc *RedisPredictionCache) Get(ctx context.Context, key string) (Probability, bool) {
	data, err := rc.client.Get(ctx, rc.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			rc.logger.WithError(err).Warn("Redis cache read failed")
		}
		rc.counter.record(false, CacheBackendRedis)
		return Probability{}, false
	}

	var p Probability
	if err := json.Unmarshal(data, &p); err != nil {
		rc.logger.WithError(err).Warn("Discarding malformed cached prediction")
		rc.counter.record(false, CacheBackendRedis)
		return Probability{}, false
	}
	rc.counter.record(true, CacheBackendRedis)
	return p, true
}

// Set stores a prediction with the configured TTL
func (rc *RedisPredictionCache) Set(ctx context.Context, key string, p Probability) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := rc.client.Set(ctx, rc.prefix+key, data, rc.ttl).Err(); err != nil {
		rc.logger.WithError(err).Warn("Redis cache write failed")
	}
}

// Clear deletes every key under the cache prefix
func (rc *RedisPredictionCache) Clear(ctx context.Context) (int, error) {
	deleted := 0
	iter := rc.client.Scan(ctx, 0, rc.prefix+"*", 500).Iterator()
	batch := make([]string, 0, 500)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			n, err := rc.client.Del(ctx, batch...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to clear redis cache: %w", err)
			}
			deleted += int(n)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("failed to scan redis cache: %w", err)
	}
	if len(batch) > 0 {
		n, err := rc.client.Del(ctx, batch...).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to clear redis cache: %w", err)
		}
		deleted += int(n)
	}
	rc.counter.reset()
	return deleted, nil
}

// Stats returns hit statistics for this process
func (rc *RedisPredictionCache) Stats() (hits, misses uint64, ratio float64) {
	return rc.counter.stats()
}

// Backend implements Cache
func (rc *RedisPredictionCache) Backend() string {
	return CacheBackendRedis
}
