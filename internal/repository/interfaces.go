package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yourusername/ipl-winprob/internal/models"
)

// PredictionRepository stores served predictions
type PredictionRepository interface {
	Create(ctx context.Context, p *models.Prediction) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Prediction, error)
	GetRecent(ctx context.Context, limit int) ([]*models.Prediction, error)
	CountByModelVersion(ctx context.Context, version string) (int64, error)
}

// ModelRepository registers trained model artifacts
type ModelRepository interface {
	Create(ctx context.Context, model *models.Model) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Model, error)
	GetByVersion(ctx context.Context, name, version string) (*models.Model, error)
	GetActive(ctx context.Context) (*models.Model, error)
	List(ctx context.Context) ([]*models.Model, error)
	Activate(ctx context.Context, id uuid.UUID) error
}
