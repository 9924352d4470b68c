package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/yourusername/ipl-winprob/internal/models"
)

// MemoryPredictionRepository keeps the most recent predictions in memory. It backs
// the prediction log when no database is configured.
type MemoryPredictionRepository struct {
	mu       sync.RWMutex
	capacity int
	items    []*models.Prediction
}

// NewMemoryPredictionRepository creates a log holding at most capacity predictions
func NewMemoryPredictionRepository(capacity int) *MemoryPredictionRepository {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemoryPredictionRepository{capacity: capacity}
}

// Create appends a prediction, evicting the oldest when full
func (r *MemoryPredictionRepository) Create(_ context.Context, p *models.Prediction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *p
	r.items = append(r.items, &cp)
	if len(r.items) > r.capacity {
		r.items = r.items[len(r.items)-r.capacity:]
	}
	return nil
}

// GetByID retrieves a prediction by ID
func (r *MemoryPredictionRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Prediction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.items {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

// GetRecent returns the latest predictions, newest first
func (r *MemoryPredictionRepository) GetRecent(_ context.Context, limit int) ([]*models.Prediction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.items) {
		limit = len(r.items)
	}
	out := make([]*models.Prediction, 0, limit)
	for i := len(r.items) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *r.items[i]
		out = append(out, &cp)
	}
	return out, nil
}

// CountByModelVersion counts retained predictions served by a model version
func (r *MemoryPredictionRepository) CountByModelVersion(_ context.Context, version string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, p := range r.items {
		if p.ModelVersion == version {
			n++
		}
	}
	return n, nil
}
