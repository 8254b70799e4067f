package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
)

// ListIngredients returns the ingredients whose name starts with prefix,
// ignoring case, ordered by name. An empty prefix lists the whole catalogue.
func (r *Repository) ListIngredients(ctx context.Context, prefix string) ([]Ingredient, error) {
	ds := r.db.Dialect.From("ingredients").
		Select("id", "name", "measurement_unit").
		Order(goqu.I("name").Asc(), goqu.I("measurement_unit").Asc())

	if prefix = strings.TrimSpace(prefix); prefix != "" {
		// SQLite's LOWER only folds ASCII letters.
		ds = ds.Where(goqu.L("LOWER(SUBSTR(name, 1, ?))", utf8.RuneCountInString(prefix)).Eq(strings.ToLower(prefix)))
	}

	ingredients := []Ingredient{}
	if err := r.db.Select(ctx, r.db.SQL, &ingredients, ds); err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return ingredients, nil
}

// GetIngredient retrieves an ingredient by its ID.
func (r *Repository) GetIngredient(ctx context.Context, id int64) (*Ingredient, error) {
	var ing Ingredient
	ds := r.db.Dialect.From("ingredients").Select("id", "name", "measurement_unit").Where(goqu.Ex{"id": id})
	if err := r.db.Get(ctx, r.db.SQL, &ing, ds); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ingredient: %w", err)
	}
	return &ing, nil
}

// ImportIngredients adds catalogue entries, skipping those whose (name, unit)
// pair already exists. It returns how many were inserted.
func (r *Repository) ImportIngredients(ctx context.Context, ingredients []Ingredient) (int, error) {
	inserted := 0
	err := r.db.InTx(ctx, func(tx *sqlx.Tx) error {
		for _, ing := range ingredients {
			name, unit := strings.TrimSpace(ing.Name), strings.TrimSpace(ing.Unit)
			if name == "" || unit == "" {
				return fmt.Errorf("ingredient %q: name and measurement unit are required", ing.Name)
			}

			ds := r.db.Dialect.Insert("ingredients").
				Rows(goqu.Record{"name": name, "measurement_unit": unit}).
				OnConflict(goqu.DoNothing())
			res, err := r.db.Exec(ctx, tx, ds.Prepared(true))
			if err != nil {
				return fmt.Errorf("failed to insert ingredient %q: %w", name, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to read affected rows: %w", err)
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}
