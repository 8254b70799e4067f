package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "lists")
	store, err := NewListStore(dir)
	require.NoError(t, err)

	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("LatestMissing", func(t *testing.T) {
		_, err := store.Latest(1)
		assert.ErrorIs(t, err, ErrNoList)
	})

	t.Run("Save", func(t *testing.T) {
		path, err := store.Save(1, first, strings.NewReader("%PDF-first"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "user-1_20260102T030405Z.pdf"), path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-first", string(data))
	})

	t.Run("SaveReplacesOlderVersion", func(t *testing.T) {
		path, err := store.Save(1, first.Add(time.Hour), strings.NewReader("%PDF-second"))
		require.NoError(t, err)

		latest, err := store.Latest(1)
		require.NoError(t, err)
		assert.Equal(t, path, latest)

		matches, err := filepath.Glob(filepath.Join(dir, "user-1_*.pdf"))
		require.NoError(t, err)
		assert.Len(t, matches, 1)
	})

	t.Run("UsersAreSeparate", func(t *testing.T) {
		_, err := store.Save(11, first, strings.NewReader("%PDF-other"))
		require.NoError(t, err)

		require.NoError(t, store.RemoveStaleVersions(1))
		_, err = store.Latest(1)
		assert.ErrorIs(t, err, ErrNoList)

		_, err = store.Latest(11)
		assert.NoError(t, err)
	})
}
