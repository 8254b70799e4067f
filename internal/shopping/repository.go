package shopping

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"foodgram/internal/database"
)

var (
	ErrAlreadyInCart  = errors.New("recipe is already in the shopping cart")
	ErrNotInCart      = errors.New("recipe is not in the shopping cart")
	ErrRecipeNotFound = errors.New("recipe not found")
)

const cartTable = "shopping_cart"

// CartRepository handles persistence of shopping carts.
type CartRepository struct {
	db *database.DB
}

// NewCartRepository creates a new shopping cart repository.
func NewCartRepository(db *database.DB) *CartRepository {
	return &CartRepository{db: db}
}

// AddRecipe puts a recipe into the user's cart.
func (r *CartRepository) AddRecipe(ctx context.Context, userID, recipeID int64) error {
	if err := r.ensureRecipe(ctx, recipeID); err != nil {
		return err
	}

	ds := r.db.Dialect.Insert(cartTable).Rows(goqu.Record{"user_id": userID, "recipe_id": recipeID})
	if _, err := r.db.Exec(ctx, r.db.SQL, ds.Prepared(true)); err != nil {
		if database.IsUniqueViolation(err) {
			return ErrAlreadyInCart
		}
		return fmt.Errorf("failed to add recipe to cart: %w", err)
	}
	return nil
}

// RemoveRecipe takes a recipe out of the user's cart.
func (r *CartRepository) RemoveRecipe(ctx context.Context, userID, recipeID int64) error {
	ds := r.db.Dialect.Delete(cartTable).Where(goqu.Ex{"user_id": userID, "recipe_id": recipeID})
	res, err := r.db.Exec(ctx, r.db.SQL, ds.Prepared(true))
	if err != nil {
		return fmt.Errorf("failed to remove recipe from cart: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotInCart
	}
	return nil
}

// Contains reports whether the recipe is in the user's cart.
func (r *CartRepository) Contains(ctx context.Context, userID, recipeID int64) (bool, error) {
	var count int64
	ds := r.db.Dialect.From(cartTable).
		Select(goqu.COUNT("*")).
		Where(goqu.Ex{"user_id": userID, "recipe_id": recipeID})
	if err := r.db.Get(ctx, r.db.SQL, &count, ds); err != nil {
		return false, fmt.Errorf("failed to check cart: %w", err)
	}
	return count > 0, nil
}

// RecipeIDs lists the recipes in the user's cart.
func (r *CartRepository) RecipeIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	ds := r.db.Dialect.From(cartTable).
		Select("recipe_id").
		Where(goqu.Ex{"user_id": userID}).
		Order(goqu.I("recipe_id").Asc())
	if err := r.db.Select(ctx, r.db.SQL, &ids, ds); err != nil {
		return nil, fmt.Errorf("failed to list cart recipes: %w", err)
	}
	return ids, nil
}

// Clear empties the user's cart and returns how many recipes were removed.
func (r *CartRepository) Clear(ctx context.Context, userID int64) (int64, error) {
	ds := r.db.Dialect.Delete(cartTable).Where(goqu.Ex{"user_id": userID})
	res, err := r.db.Exec(ctx, r.db.SQL, ds.Prepared(true))
	if err != nil {
		return 0, fmt.Errorf("failed to clear cart: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// FetchCartIngredientLines returns one line per ingredient of every recipe in
// the user's cart. Lines are not merged here.
func (r *CartRepository) FetchCartIngredientLines(ctx context.Context, userID int64) ([]Line, error) {
	ds := r.db.Dialect.From(goqu.T(cartTable).As("sc")).
		Join(goqu.T("recipe_ingredients").As("ri"), goqu.On(goqu.I("ri.recipe_id").Eq(goqu.I("sc.recipe_id")))).
		Join(goqu.T("ingredients").As("i"), goqu.On(goqu.I("i.id").Eq(goqu.I("ri.ingredient_id")))).
		Select(
			goqu.I("i.name").As("name"),
			goqu.I("i.measurement_unit").As("measurement_unit"),
			goqu.I("ri.amount").As("amount"),
		).
		Where(goqu.I("sc.user_id").Eq(userID))

	var lines []Line
	if err := r.db.Select(ctx, r.db.SQL, &lines, ds); err != nil {
		return nil, fmt.Errorf("failed to fetch cart ingredients: %w", err)
	}
	return lines, nil
}

func (r *CartRepository) ensureRecipe(ctx context.Context, recipeID int64) error {
	var id int64
	ds := r.db.Dialect.From("recipes").Select("id").Where(goqu.Ex{"id": recipeID})
	if err := r.db.Get(ctx, r.db.SQL, &id, ds); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRecipeNotFound
		}
		return fmt.Errorf("failed to look up recipe: %w", err)
	}
	return nil
}
