package database

import (
	"context"
	"fmt"

	"github.com/yourusername/ipl-winprob/internal/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS models (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	version     TEXT NOT NULL,
	kind        TEXT NOT NULL,
	path        TEXT NOT NULL,
	metrics     JSONB,
	trained_at  TIMESTAMPTZ NOT NULL,
	active      BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (name, version)
);

CREATE TABLE IF NOT EXISTS predictions (
	id                       UUID PRIMARY KEY,
	batting_team             TEXT NOT NULL,
	bowling_team             TEXT NOT NULL,
	city                     TEXT NOT NULL,
	target                   INTEGER NOT NULL,
	score                    INTEGER NOT NULL,
	overs                    DOUBLE PRECISION NOT NULL,
	wickets_fallen           INTEGER NOT NULL,
	batting_win_probability  DOUBLE PRECISION NOT NULL,
	bowling_win_probability  DOUBLE PRECISION NOT NULL,
	model_name               TEXT NOT NULL,
	model_version            TEXT NOT NULL,
	features                 JSONB,
	predicted_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS predictions_predicted_at_idx ON predictions (predicted_at DESC);
`

// EnsureSchema creates the prediction log tables when they do not exist
func EnsureSchema(ctx context.Context, db *DB) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// Initialize creates a database connection pool and makes sure the schema exists
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
