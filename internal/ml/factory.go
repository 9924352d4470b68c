package ml

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/ipl-winprob/internal/config"
)

// Backend bundles the predictor chosen by configuration with the pieces callers
// need to manage it.
type Backend struct {
	Predictor Predictor
	// Holder is set for the local backend
	Holder *ModelHolder
	// Cache is set when caching is enabled
	Cache Cache
	// Health checks the remote service; nil for the local backend
	Health func(ctx context.Context) error

	remote  Predictor
	closers []func() error
}

// Close releases connections held by the backend
func (b *Backend) Close() error {
	var firstErr error
	for _, c := range b.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type refresher interface {
	Refresh(ctx context.Context) error
}

// Reload picks up a new model. The local backend reloads the artifact when the
// file changed; remote backends refresh their model info. It reports whether the
// serving version changed.
func (b *Backend) Reload(ctx context.Context) (bool, error) {
	if b.Holder != nil {
		return b.Holder.ReloadIfChanged()
	}

	r, ok := b.remote.(refresher)
	if !ok {
		return false, nil
	}
	before := b.Predictor.Info().Version
	if err := r.Refresh(ctx); err != nil {
		return false, err
	}
	return b.Predictor.Info().Version != before, nil
}

// NewBackend builds the configured predictor. A local artifact that cannot be
// loaded is an error so the service does not start without a model.
func NewBackend(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Backend, error) {
	b := &Backend{}
	mc := cfg.Model

	switch mc.Backend {
	case config.ModelBackendLocal:
		holder := NewModelHolder(mc.ArtifactPath, logger)
		if err := holder.Load(); err != nil {
			return nil, err
		}
		b.Predictor = holder
		b.Holder = holder

	case config.ModelBackendRemoteHTTP:
		httpCfg := DefaultHTTPClientConfig()
		httpCfg.Timeout = mc.Timeout()
		httpCfg.MaxRetries = mc.RetryAttempts
		httpCfg.RateLimit = mc.RateLimitPerSecond
		httpCfg.BreakerFailures = uint32(mc.BreakerFailures)
		httpCfg.BreakerTimeout = secondsToDuration(mc.BreakerTimeoutSeconds)

		p := NewHTTPPredictor(mc.RemoteURL, mc.RemoteAPIKey, httpCfg, logger)
		if err := p.Refresh(ctx); err != nil {
			logger.WithError(err).Warn("Remote model info unavailable at startup")
		}
		b.Predictor = p
		b.remote = p
		b.Health = p.HealthCheck
		b.closers = append(b.closers, p.Close)

	case config.ModelBackendRemoteGRPC:
		p, err := DialGRPCPredictor(mc.RemoteGRPCAddress, mc.Timeout(), uint32(mc.BreakerFailures), logger)
		if err != nil {
			return nil, err
		}
		if err := p.Refresh(ctx); err != nil {
			logger.WithError(err).Warn("Remote model info unavailable at startup")
		}
		b.Predictor = p
		b.remote = p
		b.Health = p.HealthCheck
		b.closers = append(b.closers, p.Close)

	default:
		return nil, fmt.Errorf("unknown model backend %q", mc.Backend)
	}

	if cfg.Cache.Enabled {
		c, closeCache := NewCache(cfg.Cache, logger)
		if closeCache != nil {
			b.closers = append(b.closers, closeCache)
		}
		b.Cache = c
		b.Predictor = NewCachedPredictor(b.Predictor, c, mc.Backend, logger)
	}

	return b, nil
}

// NewCache builds the configured prediction cache and its closer, if any
func NewCache(cfg config.CacheConfig, logger *logrus.Logger) (Cache, func() error) {
	if cfg.Backend == config.CacheBackendRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisPredictionCache(client, cfg.TTL(), logger), client.Close
	}
	return NewPredictionCache(cfg.TTL(), cfg.MaxSize), nil
}
