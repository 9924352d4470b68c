package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/ipl-winprob/internal/database"
	"github.com/yourusername/ipl-winprob/internal/models"
)

const predictionColumns = `id, batting_team, bowling_team, city, target, score, overs, wickets_fallen,
	batting_win_probability, bowling_win_probability, model_name, model_version, features, predicted_at`

// PostgresPredictionRepository implements PredictionRepository for PostgreSQL
type PostgresPredictionRepository struct {
	db *database.DB
}

// NewPostgresPredictionRepository creates a new prediction repository
func NewPostgresPredictionRepository(db *database.DB) PredictionRepository {
	return &PostgresPredictionRepository{db: db}
}

// Create inserts a prediction
func (r *PostgresPredictionRepository) Create(ctx context.Context, p *models.Prediction) error {
	query := `INSERT INTO predictions (` + predictionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.GetPool().Exec(ctx, query,
		p.ID, p.BattingTeam, p.BowlingTeam, p.City, p.Target, p.Score, p.Overs, p.WicketsFallen,
		p.BattingWinProbability, p.BowlingWinProbability, p.ModelName, p.ModelVersion, p.Features, p.PredictedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create prediction: %w", err)
	}
	return nil
}

// GetByID retrieves a prediction by ID
func (r *PostgresPredictionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions WHERE id = $1`

	p, err := scanPrediction(r.db.GetPool().QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	return p, nil
}

// GetRecent retrieves the latest predictions, newest first
func (r *PostgresPredictionRepository) GetRecent(ctx context.Context, limit int) ([]*models.Prediction, error) {
	query := `SELECT ` + predictionColumns + ` FROM predictions ORDER BY predicted_at DESC LIMIT $1`

	rows, err := r.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var predictions []*models.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}

// CountByModelVersion counts predictions served by a model version
func (r *PostgresPredictionRepository) CountByModelVersion(ctx context.Context, version string) (int64, error) {
	var n int64
	err := r.db.GetPool().QueryRow(ctx, `SELECT COUNT(*) FROM predictions WHERE model_version = $1`, version).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count predictions: %w", err)
	}
	return n, nil
}

func scanPrediction(row pgx.Row) (*models.Prediction, error) {
	p := &models.Prediction{}
	err := row.Scan(
		&p.ID, &p.BattingTeam, &p.BowlingTeam, &p.City, &p.Target, &p.Score, &p.Overs, &p.WicketsFallen,
		&p.BattingWinProbability, &p.BowlingWinProbability, &p.ModelName, &p.ModelVersion, &p.Features, &p.PredictedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}
