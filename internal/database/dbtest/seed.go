package dbtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/require"

	"foodgram/internal/database"
)

// Amount pairs an ingredient id with the amount a recipe uses.
type Amount struct {
	IngredientID int64
	Amount       int64
}

// SeedUser inserts a user whose email and username derive from name.
func SeedUser(t testing.TB, db *database.DB, name string) int64 {
	t.Helper()

	id, err := db.InsertID(context.Background(), db.SQL, db.Dialect.Insert("users").Rows(goqu.Record{
		"email":         name + "@example.com",
		"username":      name,
		"first_name":    name,
		"last_name":     "Test",
		"password_hash": "x",
		"created_at":    time.Now().UTC(),
	}))
	require.NoError(t, err)
	return id
}

// SeedIngredient inserts an ingredient.
func SeedIngredient(t testing.TB, db *database.DB, name, unit string) int64 {
	t.Helper()

	id, err := db.InsertID(context.Background(), db.SQL, db.Dialect.Insert("ingredients").Rows(goqu.Record{
		"name":             name,
		"measurement_unit": unit,
	}))
	require.NoError(t, err)
	return id
}

// SeedRecipe inserts a recipe by authorID with the given ingredient amounts.
func SeedRecipe(t testing.TB, db *database.DB, authorID int64, name string, amounts ...Amount) int64 {
	t.Helper()
	ctx := context.Background()

	id, err := db.InsertID(ctx, db.SQL, db.Dialect.Insert("recipes").Rows(goqu.Record{
		"author_id":    authorID,
		"name":         name,
		"text":         fmt.Sprintf("How to cook %s.", name),
		"cooking_time": 10,
		"created_at":   time.Now().UTC(),
	}))
	require.NoError(t, err)

	for _, a := range amounts {
		_, err := db.Exec(ctx, db.SQL, db.Dialect.Insert("recipe_ingredients").Rows(goqu.Record{
			"recipe_id":     id,
			"ingredient_id": a.IngredientID,
			"amount":        a.Amount,
		}).Prepared(true))
		require.NoError(t, err)
	}
	return id
}
