package shopping_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"foodgram/internal/database/dbtest"
	"foodgram/internal/document"
	"foodgram/internal/shopping"
)

func TestCartRepository(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	repo := shopping.NewCartRepository(db)

	author := dbtest.SeedUser(t, db, "author")
	buyer := dbtest.SeedUser(t, db, "buyer")

	salt := dbtest.SeedIngredient(t, db, "Salt", "g")
	milkMl := dbtest.SeedIngredient(t, db, "Milk", "ml")
	milkL := dbtest.SeedIngredient(t, db, "Milk", "L")

	soup := dbtest.SeedRecipe(t, db, author, "Soup", dbtest.Amount{IngredientID: salt, Amount: 10}, dbtest.Amount{IngredientID: milkMl, Amount: 200})
	bread := dbtest.SeedRecipe(t, db, author, "Bread", dbtest.Amount{IngredientID: salt, Amount: 5}, dbtest.Amount{IngredientID: milkL, Amount: 1})

	t.Run("EmptyCart", func(t *testing.T) {
		lines, err := repo.FetchCartIngredientLines(ctx, buyer)
		require.NoError(t, err)
		assert.Empty(t, lines)
	})

	t.Run("AddRecipe", func(t *testing.T) {
		require.NoError(t, repo.AddRecipe(ctx, buyer, soup))
		require.NoError(t, repo.AddRecipe(ctx, buyer, bread))

		ok, err := repo.Contains(ctx, buyer, soup)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Contains(ctx, author, soup)
		require.NoError(t, err)
		assert.False(t, ok)

		ids, err := repo.RecipeIDs(ctx, buyer)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{soup, bread}, ids)
	})

	t.Run("AddRecipeTwice", func(t *testing.T) {
		err := repo.AddRecipe(ctx, buyer, soup)
		assert.ErrorIs(t, err, shopping.ErrAlreadyInCart)
	})

	t.Run("AddMissingRecipe", func(t *testing.T) {
		err := repo.AddRecipe(ctx, buyer, 9999)
		assert.ErrorIs(t, err, shopping.ErrRecipeNotFound)
	})

	t.Run("FetchCartIngredientLines", func(t *testing.T) {
		lines, err := repo.FetchCartIngredientLines(ctx, buyer)
		require.NoError(t, err)
		assert.ElementsMatch(t, []shopping.Line{
			{Name: "Salt", Unit: "g", Amount: 10},
			{Name: "Milk", Unit: "ml", Amount: 200},
			{Name: "Salt", Unit: "g", Amount: 5},
			{Name: "Milk", Unit: "L", Amount: 1},
		}, lines)

		assert.Equal(t, []shopping.Item{
			{Name: "Milk", Unit: "L", Amount: 1},
			{Name: "Milk", Unit: "ml", Amount: 200},
			{Name: "Salt", Unit: "g", Amount: 15},
		}, shopping.Aggregate(lines))
	})

	t.Run("Download", func(t *testing.T) {
		svc := shopping.NewService(repo, document.NewRenderer("", document.DefaultMetrics), "list.pdf", zap.NewNop())

		doc, err := svc.Download(ctx, buyer)
		require.NoError(t, err)
		assert.Equal(t, "list.pdf", doc.Filename)
		assert.Equal(t, 3, doc.Items)
		assert.Equal(t, 1, doc.Pages)
		assert.Positive(t, doc.Content.Len())
	})

	t.Run("RemoveRecipe", func(t *testing.T) {
		require.NoError(t, repo.RemoveRecipe(ctx, buyer, bread))
		assert.ErrorIs(t, repo.RemoveRecipe(ctx, buyer, bread), shopping.ErrNotInCart)

		lines, err := repo.FetchCartIngredientLines(ctx, buyer)
		require.NoError(t, err)
		assert.Len(t, lines, 2)
	})

	t.Run("Clear", func(t *testing.T) {
		n, err := repo.Clear(ctx, buyer)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)

		lines, err := repo.FetchCartIngredientLines(ctx, buyer)
		require.NoError(t, err)
		assert.Empty(t, lines)
	})
}
