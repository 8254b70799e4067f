package recipe_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodgram/internal/database/dbtest"
	"foodgram/internal/recipe"
)

type fixture struct {
	repo   *recipe.Repository
	alice  int64
	bob    int64
	flour  int64
	eggs   int64
	milk   int64
	dinner *recipe.Tag
	brunch *recipe.Tag
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := dbtest.New(t)
	repo := recipe.NewRepository(db)

	f := &fixture{
		repo:  repo,
		alice: dbtest.SeedUser(t, db, "alice"),
		bob:   dbtest.SeedUser(t, db, "bob"),
	}

	n, err := repo.ImportIngredients(ctx, []recipe.Ingredient{
		{Name: "flour", Unit: "g"},
		{Name: "eggs", Unit: "pcs"},
		{Name: "milk", Unit: "ml"},
	})
	require.NoError(t, err)
	require.Equal(t, 3, n)

	all, err := repo.ListIngredients(ctx, "")
	require.NoError(t, err)
	for _, ing := range all {
		switch ing.Name {
		case "flour":
			f.flour = ing.ID
		case "eggs":
			f.eggs = ing.ID
		case "milk":
			f.milk = ing.ID
		}
	}

	f.dinner, err = repo.CreateTag(ctx, recipe.Tag{Name: "Dinner", Color: "#00FF00", Slug: "dinner"})
	require.NoError(t, err)
	f.brunch, err = repo.CreateTag(ctx, recipe.Tag{Name: "Brunch", Color: "#FF0000", Slug: "brunch"})
	require.NoError(t, err)
	return f
}

func (f *fixture) draft(name string, tags ...int64) recipe.Draft {
	return recipe.Draft{
		Name:        name,
		Text:        "Mix everything.",
		CookingTime: 15,
		Ingredients: []recipe.DraftIngredient{{ID: f.flour, Amount: 200}, {ID: f.eggs, Amount: 2}},
		Tags:        tags,
	}
}

func TestTags(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tags, err := f.repo.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []recipe.Tag{*f.dinner, *f.brunch}, tags)

	got, err := f.repo.GetTag(ctx, f.brunch.ID)
	require.NoError(t, err)
	assert.Equal(t, "brunch", got.Slug)

	_, err = f.repo.GetTag(ctx, 999)
	assert.ErrorIs(t, err, recipe.ErrNotFound)

	_, err = f.repo.CreateTag(ctx, recipe.Tag{Name: "Dinner", Color: "#000000", Slug: "dinner-2"})
	assert.ErrorIs(t, err, recipe.ErrTagExists)
}

func TestIngredients(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("ImportIsIdempotent", func(t *testing.T) {
		n, err := f.repo.ImportIngredients(ctx, []recipe.Ingredient{
			{Name: "flour", Unit: "g"},
			{Name: "flour", Unit: "kg"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("ImportRejectsBlank", func(t *testing.T) {
		_, err := f.repo.ImportIngredients(ctx, []recipe.Ingredient{{Name: "salt"}})
		assert.Error(t, err)
	})

	t.Run("PrefixSearch", func(t *testing.T) {
		got, err := f.repo.ListIngredients(ctx, "FL")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "g", got[0].Unit)
		assert.Equal(t, "kg", got[1].Unit)

		got, err = f.repo.ListIngredients(ctx, "lour")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("OrderedByName", func(t *testing.T) {
		got, err := f.repo.ListIngredients(ctx, "")
		require.NoError(t, err)
		var names []string
		for _, ing := range got {
			names = append(names, ing.Name)
		}
		assert.Equal(t, []string{"eggs", "flour", "flour", "milk"}, names)
	})

	t.Run("Get", func(t *testing.T) {
		got, err := f.repo.GetIngredient(ctx, f.milk)
		require.NoError(t, err)
		assert.Equal(t, "ml", got.Unit)

		_, err = f.repo.GetIngredient(ctx, 999)
		assert.ErrorIs(t, err, recipe.ErrNotFound)
	})
}

func TestRecipeLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.repo.Create(ctx, f.alice, f.draft("Pancakes", f.brunch.ID))
	require.NoError(t, err)
	assert.Equal(t, "Pancakes", created.Name)
	assert.Equal(t, f.alice, created.Author.ID)
	assert.Equal(t, "alice", created.Author.Username)
	require.Len(t, created.Ingredients, 2)
	assert.Equal(t, recipe.IngredientAmount{ID: f.eggs, Name: "eggs", Unit: "pcs", Amount: 2}, created.Ingredients[0])
	assert.Equal(t, []recipe.Tag{*f.brunch}, created.Tags)
	assert.False(t, created.CreatedAt.IsZero())

	t.Run("CreateRejectsUnknownIngredient", func(t *testing.T) {
		d := f.draft("Ghost", f.brunch.ID)
		d.Ingredients = append(d.Ingredients, recipe.DraftIngredient{ID: 999, Amount: 1})
		_, err := f.repo.Create(ctx, f.alice, d)
		assert.ErrorIs(t, err, recipe.ErrInvalidRecipe)
	})

	t.Run("CreateRejectsInvalidDraft", func(t *testing.T) {
		d := f.draft("Ghost", f.brunch.ID)
		d.CookingTime = 0
		_, err := f.repo.Create(ctx, f.alice, d)
		assert.ErrorIs(t, err, recipe.ErrInvalidRecipe)
	})

	t.Run("UpdateByStranger", func(t *testing.T) {
		_, err := f.repo.Update(ctx, created.ID, f.bob, f.draft("Stolen", f.dinner.ID))
		assert.ErrorIs(t, err, recipe.ErrForbidden)
	})

	t.Run("UpdateReplacesRelations", func(t *testing.T) {
		d := f.draft("Crepes", f.dinner.ID)
		d.Ingredients = []recipe.DraftIngredient{{ID: f.milk, Amount: 300}}
		updated, err := f.repo.Update(ctx, created.ID, f.alice, d)
		require.NoError(t, err)
		assert.Equal(t, "Crepes", updated.Name)
		assert.Equal(t, []recipe.IngredientAmount{{ID: f.milk, Name: "milk", Unit: "ml", Amount: 300}}, updated.Ingredients)
		assert.Equal(t, []recipe.Tag{*f.dinner}, updated.Tags)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		_, err := f.repo.Update(ctx, 999, f.alice, f.draft("None", f.dinner.ID))
		assert.ErrorIs(t, err, recipe.ErrNotFound)
	})

	t.Run("DeleteByStranger", func(t *testing.T) {
		assert.ErrorIs(t, f.repo.Delete(ctx, created.ID, f.bob), recipe.ErrForbidden)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, f.repo.Delete(ctx, created.ID, f.alice))
		_, err := f.repo.Get(ctx, created.ID, 0)
		assert.ErrorIs(t, err, recipe.ErrNotFound)
	})
}

func TestListAndFavorites(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.repo.Create(ctx, f.alice, f.draft("Pancakes", f.brunch.ID))
	require.NoError(t, err)
	stew, err := f.repo.Create(ctx, f.alice, f.draft("Stew", f.dinner.ID))
	require.NoError(t, err)
	_, err = f.repo.Create(ctx, f.bob, f.draft("Omelette", f.brunch.ID, f.dinner.ID))
	require.NoError(t, err)

	names := func(p *recipe.Page) []string {
		var out []string
		for _, r := range p.Results {
			out = append(out, r.Name)
		}
		return out
	}

	t.Run("NewestFirst", func(t *testing.T) {
		page, err := f.repo.List(ctx, recipe.Filter{})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Count)
		assert.Equal(t, []string{"Omelette", "Stew", "Pancakes"}, names(page))
	})

	t.Run("Paginated", func(t *testing.T) {
		page, err := f.repo.List(ctx, recipe.Filter{Limit: 2, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Count)
		assert.Equal(t, []string{"Stew", "Pancakes"}, names(page))
	})

	t.Run("ByAuthor", func(t *testing.T) {
		page, err := f.repo.List(ctx, recipe.Filter{AuthorID: f.bob})
		require.NoError(t, err)
		assert.Equal(t, []string{"Omelette"}, names(page))
	})

	t.Run("ByTags", func(t *testing.T) {
		page, err := f.repo.List(ctx, recipe.Filter{TagSlugs: []string{"brunch"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"Omelette", "Pancakes"}, names(page))
		require.Len(t, page.Results[0].Tags, 2)
	})

	t.Run("Favorites", func(t *testing.T) {
		require.NoError(t, f.repo.AddFavorite(ctx, f.bob, stew.ID))
		assert.ErrorIs(t, f.repo.AddFavorite(ctx, f.bob, stew.ID), recipe.ErrAlreadyFavorited)
		assert.ErrorIs(t, f.repo.AddFavorite(ctx, f.bob, 999), recipe.ErrNotFound)

		page, err := f.repo.List(ctx, recipe.Filter{ViewerID: f.bob, FavoritedOnly: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"Stew"}, names(page))
		assert.True(t, page.Results[0].IsFavorited)

		got, err := f.repo.Get(ctx, stew.ID, f.alice)
		require.NoError(t, err)
		assert.False(t, got.IsFavorited)

		require.NoError(t, f.repo.RemoveFavorite(ctx, f.bob, stew.ID))
		assert.ErrorIs(t, f.repo.RemoveFavorite(ctx, f.bob, stew.ID), recipe.ErrNotFavorited)
	})

	t.Run("AnonymousFavoritesIsEmpty", func(t *testing.T) {
		page, err := f.repo.List(ctx, recipe.Filter{FavoritedOnly: true})
		require.NoError(t, err)
		assert.Empty(t, page.Results)
	})
}
