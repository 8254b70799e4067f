package recipe

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"foodgram/internal/database"
)

// AddFavorite marks a recipe as a favorite of userID.
func (r *Repository) AddFavorite(ctx context.Context, userID, recipeID int64) error {
	if _, err := r.Get(ctx, recipeID, 0); err != nil {
		return err
	}

	ds := r.db.Dialect.Insert("favorites").Rows(goqu.Record{"user_id": userID, "recipe_id": recipeID})
	if _, err := r.db.Exec(ctx, r.db.SQL, ds.Prepared(true)); err != nil {
		if database.IsUniqueViolation(err) {
			return ErrAlreadyFavorited
		}
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite unmarks a favorite recipe.
func (r *Repository) RemoveFavorite(ctx context.Context, userID, recipeID int64) error {
	ds := r.db.Dialect.Delete("favorites").Where(goqu.Ex{"user_id": userID, "recipe_id": recipeID})
	res, err := r.db.Exec(ctx, r.db.SQL, ds.Prepared(true))
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFavorited
	}
	return nil
}
