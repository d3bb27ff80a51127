// Package testutil provides helpers for repository tests backed by a
// real SQLite database.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pptxtrans/internal/db"
	"pptxtrans/internal/model"
	"pptxtrans/internal/repository"
	"pptxtrans/internal/snowflake"
)

// NewTestDB opens a migrated database in a temp directory.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	require.NoError(t, snowflake.Init(0))

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

// SeedJob inserts a job and returns it.
func SeedJob(t *testing.T, database *sql.DB, job model.Job) model.Job {
	t.Helper()
	if job.Status == "" {
		job.Status = model.StatusPending
	}
	if job.ExpiresAt.IsZero() {
		job.ExpiresAt = time.Now().UTC().Add(time.Hour)
	}
	created, err := repository.NewJobRepository(database).Create(context.Background(), job)
	require.NoError(t, err)
	return created
}

// SeedResult inserts a translation result and returns it.
func SeedResult(t *testing.T, database *sql.DB, result model.TranslationResult) model.TranslationResult {
	t.Helper()
	created, err := repository.NewResultRepository(database).Create(context.Background(), result)
	require.NoError(t, err)
	return created
}
