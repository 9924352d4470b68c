package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yourusername/ipl-winprob/internal/database"
	"github.com/yourusername/ipl-winprob/internal/models"
)

const modelColumns = `id, name, version, kind, path, metrics, trained_at, active, created_at`

// PostgresModelRepository implements ModelRepository for PostgreSQL
type PostgresModelRepository struct {
	db *database.DB
}

// NewPostgresModelRepository creates a new model repository
func NewPostgresModelRepository(db *database.DB) ModelRepository {
	return &PostgresModelRepository{db: db}
}

// Create registers a model. A duplicate name and version returns models.ErrDuplicateKey.
func (m *PostgresModelRepository) Create(ctx context.Context, model *models.Model) error {
	query := `
		INSERT INTO models (id, name, version, kind, path, metrics, trained_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := m.db.GetPool().Exec(ctx, query,
		model.ID, model.Name, model.Version, model.Kind, model.Path, model.Metrics, model.TrainedAt, model.Active,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.ErrDuplicateKey
		}
		return fmt.Errorf("failed to create model: %w", err)
	}
	return nil
}

// GetByID retrieves a model by ID
func (m *PostgresModelRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Model, error) {
	return m.getOne(ctx, `SELECT `+modelColumns+` FROM models WHERE id = $1`, id)
}

// GetByVersion retrieves a specific model version
func (m *PostgresModelRepository) GetByVersion(ctx context.Context, name, version string) (*models.Model, error) {
	return m.getOne(ctx, `SELECT `+modelColumns+` FROM models WHERE name = $1 AND version = $2`, name, version)
}

// GetActive retrieves the most recently trained active model
func (m *PostgresModelRepository) GetActive(ctx context.Context) (*models.Model, error) {
	return m.getOne(ctx, `SELECT `+modelColumns+` FROM models WHERE active ORDER BY trained_at DESC LIMIT 1`)
}

// List returns all registered models, newest first
func (m *PostgresModelRepository) List(ctx context.Context) ([]*models.Model, error) {
	rows, err := m.db.GetPool().Query(ctx, `SELECT `+modelColumns+` FROM models ORDER BY trained_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query models: %w", err)
	}
	defer rows.Close()

	var list []*models.Model
	for rows.Next() {
		model, err := scanModel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		list = append(list, model)
	}
	return list, rows.Err()
}

// Activate marks one model active and every other model inactive
func (m *PostgresModelRepository) Activate(ctx context.Context, id uuid.UUID) error {
	return m.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE models SET active = (id = $1)`, id)
		if err != nil {
			return fmt.Errorf("failed to activate model: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return models.ErrNotFound
		}

		var found bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM models WHERE id = $1)`, id).Scan(&found); err != nil {
			return fmt.Errorf("failed to check model: %w", err)
		}
		if !found {
			return models.ErrNotFound
		}
		return nil
	})
}

func (m *PostgresModelRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.Model, error) {
	model, err := scanModel(m.db.GetPool().QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model: %w", err)
	}
	return model, nil
}

func scanModel(row pgx.Row) (*models.Model, error) {
	model := &models.Model{}
	err := row.Scan(
		&model.ID, &model.Name, &model.Version, &model.Kind, &model.Path,
		&model.Metrics, &model.TrainedAt, &model.Active, &model.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return model, nil
}
