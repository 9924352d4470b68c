package ml

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/ipl-winprob/internal/config"
)

func backendConfig(backend string) *config.Config {
	return &config.Config{
		Model: config.ModelConfig{
			Backend:        backend,
			TimeoutSeconds: 1,
		},
		Cache: config.CacheConfig{
			Enabled:    true,
			Backend:    config.CacheBackendMemory,
			TTLSeconds: 60,
			MaxSize:    100,
		},
	}
}

func TestNewBackendLocal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, testArtifact().Save(path))

	cfg := backendConfig(config.ModelBackendLocal)
	cfg.Model.ArtifactPath = path

	b, err := NewBackend(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer b.Close()

	require.NotNil(t, b.Holder)
	assert.Nil(t, b.Health)
	assert.IsType(t, &CachedPredictor{}, b.Predictor)
	assert.Equal(t, "v1", b.Predictor.Info().Version)

	changed, err := b.Reload(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)

	next := testArtifact()
	next.Version = "v2"
	require.NoError(t, next.Save(path))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	changed, err = b.Reload(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "v2", b.Predictor.Info().Version)
}

func TestNewBackendLocalMissingArtifact(t *testing.T) {
	cfg := backendConfig(config.ModelBackendLocal)
	cfg.Model.ArtifactPath = filepath.Join(t.TempDir(), "missing.json")

	_, err := NewBackend(context.Background(), cfg, quietLogger())
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}

func TestNewBackendUnknown(t *testing.T) {
	_, err := NewBackend(context.Background(), backendConfig("pickle"), quietLogger())
	assert.Error(t, err)
}

func TestNewBackendRemoteHTTPReload(t *testing.T) {
	var version atomic.Value
	version.Store("r1")

	mux := http.NewServeMux()
	mux.HandleFunc(ModelPath, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ModelInfo{Name: "remote", Version: version.Load().(string)})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := backendConfig(config.ModelBackendRemoteHTTP)
	cfg.Model.RemoteURL = srv.URL
	cfg.Cache.Enabled = false

	b, err := NewBackend(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer b.Close()

	assert.Nil(t, b.Holder)
	require.NotNil(t, b.Health)
	require.NoError(t, b.Health(context.Background()))
	assert.Equal(t, "r1", b.Predictor.Info().Version)

	changed, err := b.Reload(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)

	version.Store("r2")
	changed, err = b.Reload(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "r2", b.Predictor.Info().Version)
}
