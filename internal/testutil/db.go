package testutil

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"taskhub/internal/repositories"
)

// NewTestDB opens an in-memory SQLite database with all migrations applied.
// It is closed automatically when the test completes.
func NewTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := repositories.Open(repositories.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("closing test db: %v", err)
		}
	})

	if err := repositories.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db
}
