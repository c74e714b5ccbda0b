// Package testutil provides testing utilities for integration tests.
package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/janitarr/janitarr/internal/database"
)

// TestDB wraps a migrated test database in a temp directory.
type TestDB struct {
	DB   *database.DB
	Conn *sql.DB
}

// NewTestDB creates a ready-to-use database under t.TempDir. Cleanup is
// registered automatically.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return &TestDB{DB: db, Conn: db.Conn()}
}

// NewTestLogger creates a test logger that outputs to t.Log.
func NewTestLogger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
}
