package database_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"foodgram/internal/config"
	"foodgram/internal/database"
	"foodgram/internal/database/dbtest"
)

func TestNewDB(t *testing.T) {
	cfg := config.Default()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "nested", "foodgram.db")

	db, err := database.NewDB(cfg, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	// Running migrations again is a no-op.
	require.NoError(t, db.Migrate())

	var count int
	require.NoError(t, db.SQL.Get(&count, "SELECT COUNT(*) FROM shopping_cart"))
	assert.Zero(t, count)
}

func TestInsertIDAndUniqueViolation(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)

	insert := db.Dialect.Insert("tags").Rows(goqu.Record{"name": "Breakfast", "color": "#E26C2D", "slug": "breakfast"})

	id, err := db.InsertID(ctx, db.SQL, insert)
	require.NoError(t, err)
	assert.Positive(t, id)

	_, err = db.InsertID(ctx, db.SQL, insert)
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
	assert.False(t, database.IsUniqueViolation(errors.New("boom")))
}

func TestInTx(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)

	t.Run("Rollback", func(t *testing.T) {
		errStop := errors.New("stop")
		err := db.InTx(ctx, func(tx *sqlx.Tx) error {
			_, err := db.InsertID(ctx, tx, db.Dialect.Insert("ingredients").
				Rows(goqu.Record{"name": "Salt", "measurement_unit": "g"}))
			require.NoError(t, err)
			return errStop
		})
		require.ErrorIs(t, err, errStop)

		var name string
		err = db.Get(ctx, db.SQL, &name, db.Dialect.From("ingredients").Select("name"))
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("Commit", func(t *testing.T) {
		err := db.InTx(ctx, func(tx *sqlx.Tx) error {
			_, err := db.Exec(ctx, tx, db.Dialect.Insert("users").Rows(goqu.Record{
				"email":         "cook@example.com",
				"username":      "cook",
				"password_hash": "x",
				"created_at":    time.Now().UTC(),
			}).Prepared(true))
			return err
		})
		require.NoError(t, err)

		var usernames []string
		require.NoError(t, db.Select(ctx, db.SQL, &usernames, db.Dialect.From("users").Select("username")))
		assert.Equal(t, []string{"cook"}, usernames)
	})
}
