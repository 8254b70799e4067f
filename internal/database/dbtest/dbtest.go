// Package dbtest opens throwaway SQLite databases with the real schema for repository tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"foodgram/internal/database"
)

// New returns a migrated SQLite database living in the test's temp dir.
// It is closed when the test finishes.
func New(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "foodgram.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate())
	return db
}
