package ml

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/ipl-winprob/internal/logger"
	"github.com/yourusername/ipl-winprob/internal/models"
)

// ModelHolder owns the active local model. Readers score against a consistent
// model while Reload swaps in a new artifact from disk.
type ModelHolder struct {
	mu      sync.RWMutex
	current *LocalModel
	path    string
	modTime time.Time

	logger *logger.PredictionLogger
	audit  *logger.AuditLogger
}

// NewModelHolder creates a holder for the artifact at path. Nothing is loaded until Load.
func NewModelHolder(path string, log *logrus.Logger) *ModelHolder {
	return &ModelHolder{
		path:   path,
		logger: logger.NewPredictionLogger(log),
		audit:  logger.NewAuditLogger(log),
	}
}

// Load reads the artifact and makes it active
func (h *ModelHolder) Load() error {
	return h.load("load")
}

func (h *ModelHolder) load(trigger string) error {
	info, err := os.Stat(h.path)
	if err != nil {
		ModelReloadsTotal.WithLabelValues("failure").Inc()
		return fmt.Errorf("%w: %v", ErrArtifactNotFound, err)
	}

	m, err := LoadLocalModel(h.path)
	if err != nil {
		ModelReloadsTotal.WithLabelValues("failure").Inc()
		return err
	}

	h.mu.Lock()
	h.modTime = info.ModTime()
	h.mu.Unlock()

	h.Swap(m, trigger)
	ModelReloadsTotal.WithLabelValues("success").Inc()
	return nil
}

// ReloadIfChanged reloads when the artifact's modification time moved.
// A failed reload keeps the previous model active.
func (h *ModelHolder) ReloadIfChanged() (bool, error) {
	info, err := os.Stat(h.path)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrArtifactNotFound, err)
	}

	h.mu.RLock()
	unchanged := h.current != nil && info.ModTime().Equal(h.modTime)
	h.mu.RUnlock()
	if unchanged {
		return false, nil
	}

	if err := h.load("reload"); err != nil {
		return false, err
	}
	return true, nil
}

// Swap replaces the active model
func (h *ModelHolder) Swap(m *LocalModel, trigger string) {
	h.mu.Lock()
	old := h.current
	h.current = m
	h.mu.Unlock()

	oldVersion := ""
	if old != nil {
		oldVersion = old.artifact.Version
	}
	info := m.Info()
	h.logger.LogModelLoaded(info.Name, info.Version, info.Kind, info.Source)
	h.audit.LogModelSwap(oldVersion, info.Version, trigger)
}

// Current returns the active model
func (h *ModelHolder) Current() (*LocalModel, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.current == nil {
		return nil, ErrModelNotLoaded
	}
	return h.current, nil
}

// Ready reports whether a model is active
func (h *ModelHolder) Ready() bool {
	_, err := h.Current()
	return err == nil
}

// PredictProba implements Predictor
func (h *ModelHolder) PredictProba(ctx context.Context, rec models.FeatureRecord) (Probability, error) {
	m, err := h.Current()
	if err != nil {
		return Probability{}, err
	}

	start := time.Now()
	p, err := m.PredictProba(ctx, rec)
	PredictionLatency.WithLabelValues(BackendLocal).Observe(time.Since(start).Seconds())
	return p, err
}

// Info implements Predictor. The zero ModelInfo is returned when nothing is loaded.
func (h *ModelHolder) Info() ModelInfo {
	m, err := h.Current()
	if err != nil {
		return ModelInfo{Source: h.path}
	}
	return m.Info()
}
