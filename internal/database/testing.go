package database

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/yourusername/ipl-winprob/internal/config"
)

// SetupTestDB connects to the database named by TEST_DATABASE_HOST and friends,
// skipping the test when none is configured.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	host := os.Getenv("TEST_DATABASE_HOST")
	if host == "" {
		t.Skip("TEST_DATABASE_HOST not set")
	}
	port, _ := strconv.Atoi(os.Getenv("TEST_DATABASE_PORT"))
	if port == 0 {
		port = 5432
	}

	cfg := &config.DatabaseConfig{
		Enabled:  true,
		Host:     host,
		Port:     port,
		Name:     envOr("TEST_DATABASE_NAME", "winprob_test"),
		User:     envOr("TEST_DATABASE_USER", "postgres"),
		Password: os.Getenv("TEST_DATABASE_PASSWORD"),
		SSLMode:  "disable",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := NewDB(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		t.Fatalf("failed to prepare test schema: %v", err)
	}

	t.Cleanup(db.Close)
	return db
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
