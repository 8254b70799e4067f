package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"

	"foodgram/internal/database"
)

// Repository is a database-backed repository for recipes, tags and ingredients.
type Repository struct {
	db  *database.DB
	now func() time.Time
}

// NewRepository creates a new Repository.
func NewRepository(db *database.DB) *Repository {
	return &Repository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

type recipeRow struct {
	ID               int64     `db:"id"`
	Name             string    `db:"name"`
	Text             string    `db:"text"`
	CookingTime      int       `db:"cooking_time"`
	CreatedAt        time.Time `db:"created_at"`
	AuthorID         int64     `db:"author_id"`
	AuthorEmail      string    `db:"author_email"`
	AuthorUsername   string    `db:"author_username"`
	AuthorFirstName  string    `db:"author_first_name"`
	AuthorLastName   string    `db:"author_last_name"`
	AuthorSubscribed bool      `db:"author_subscribed"`
	IsFavorited      bool      `db:"is_favorited"`
	IsInShoppingCart bool      `db:"is_in_shopping_cart"`
}

func (row recipeRow) toRecipe() Recipe {
	return Recipe{
		ID: row.ID,
		Author: Author{
			ID:           row.AuthorID,
			Email:        row.AuthorEmail,
			Username:     row.AuthorUsername,
			FirstName:    row.AuthorFirstName,
			LastName:     row.AuthorLastName,
			IsSubscribed: row.AuthorSubscribed,
		},
		Name:             row.Name,
		Text:             row.Text,
		CookingTime:      row.CookingTime,
		CreatedAt:        row.CreatedAt,
		IsFavorited:      row.IsFavorited,
		IsInShoppingCart: row.IsInShoppingCart,
		Tags:             []Tag{},
		Ingredients:      []IngredientAmount{},
	}
}

// recipes selects recipes joined with their author, flagged for viewerID.
func (r *Repository) recipes(viewerID int64) *goqu.SelectDataset {
	return r.db.Dialect.From(goqu.T("recipes").As("r")).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("r.author_id")))).
		Select(
			goqu.I("r.id").As("id"),
			goqu.I("r.name").As("name"),
			goqu.I("r.text").As("text"),
			goqu.I("r.cooking_time").As("cooking_time"),
			goqu.I("r.created_at").As("created_at"),
			goqu.I("r.author_id").As("author_id"),
			goqu.I("u.email").As("author_email"),
			goqu.I("u.username").As("author_username"),
			goqu.I("u.first_name").As("author_first_name"),
			goqu.I("u.last_name").As("author_last_name"),
			goqu.L("EXISTS (SELECT 1 FROM subscriptions s WHERE s.author_id = r.author_id AND s.user_id = ?)", viewerID).As("author_subscribed"),
			goqu.L("EXISTS (SELECT 1 FROM favorites f WHERE f.recipe_id = r.id AND f.user_id = ?)", viewerID).As("is_favorited"),
			goqu.L("EXISTS (SELECT 1 FROM shopping_cart c WHERE c.recipe_id = r.id AND c.user_id = ?)", viewerID).As("is_in_shopping_cart"),
		)
}

// Get retrieves a recipe by its ID as seen by viewerID (0 for anonymous).
func (r *Repository) Get(ctx context.Context, id, viewerID int64) (*Recipe, error) {
	var row recipeRow
	if err := r.db.Get(ctx, r.db.SQL, &row, r.recipes(viewerID).Where(goqu.I("r.id").Eq(id))); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	recipes := []Recipe{row.toRecipe()}
	if err := r.attach(ctx, recipes); err != nil {
		return nil, err
	}
	return &recipes[0], nil
}

// List returns recipes matching f, newest first.
func (r *Repository) List(ctx context.Context, f Filter) (*Page, error) {
	page := &Page{Results: []Recipe{}}
	if (f.FavoritedOnly || f.InCartOnly) && f.ViewerID == 0 {
		return page, nil
	}

	where := r.filter(f)

	var count int64
	countDs := r.db.Dialect.From(goqu.T("recipes").As("r")).Select(goqu.COUNT("*")).Where(where...)
	if err := r.db.Get(ctx, r.db.SQL, &count, countDs); err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}
	page.Count = int(count)

	ds := r.recipes(f.ViewerID).Where(where...).Order(goqu.I("r.created_at").Desc(), goqu.I("r.id").Desc())
	if f.Limit > 0 {
		ds = ds.Limit(uint(f.Limit))
	}
	if f.Offset > 0 {
		ds = ds.Offset(uint(f.Offset))
	}

	var rows []recipeRow
	if err := r.db.Select(ctx, r.db.SQL, &rows, ds); err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	for _, row := range rows {
		page.Results = append(page.Results, row.toRecipe())
	}

	if err := r.attach(ctx, page.Results); err != nil {
		return nil, err
	}
	return page, nil
}

func (r *Repository) filter(f Filter) []exp.Expression {
	var where []exp.Expression
	if f.AuthorID != 0 {
		where = append(where, goqu.I("r.author_id").Eq(f.AuthorID))
	}
	if len(f.TagSlugs) > 0 {
		tagged := r.db.Dialect.From(goqu.T("recipe_tags").As("rt")).
			Join(goqu.T("tags").As("t"), goqu.On(goqu.I("t.id").Eq(goqu.I("rt.tag_id")))).
			Select(goqu.I("rt.recipe_id")).
			Where(goqu.I("t.slug").In(f.TagSlugs))
		where = append(where, goqu.I("r.id").In(tagged))
	}
	if f.FavoritedOnly {
		favorited := r.db.Dialect.From("favorites").Select("recipe_id").Where(goqu.Ex{"user_id": f.ViewerID})
		where = append(where, goqu.I("r.id").In(favorited))
	}
	if f.InCartOnly {
		inCart := r.db.Dialect.From("shopping_cart").Select("recipe_id").Where(goqu.Ex{"user_id": f.ViewerID})
		where = append(where, goqu.I("r.id").In(inCart))
	}
	return where
}

type recipeTagRow struct {
	RecipeID int64 `db:"recipe_id"`
	Tag
}

type recipeIngredientRow struct {
	RecipeID int64 `db:"recipe_id"`
	IngredientAmount
}

// attach loads tags and ingredients for recipes in two queries.
func (r *Repository) attach(ctx context.Context, recipes []Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	ids := make([]int64, len(recipes))
	index := make(map[int64]int, len(recipes))
	for i, rec := range recipes {
		ids[i] = rec.ID
		index[rec.ID] = i
	}

	var tags []recipeTagRow
	tagDs := r.db.Dialect.From(goqu.T("recipe_tags").As("rt")).
		Join(goqu.T("tags").As("t"), goqu.On(goqu.I("t.id").Eq(goqu.I("rt.tag_id")))).
		Select(
			goqu.I("rt.recipe_id").As("recipe_id"),
			goqu.I("t.id").As("id"),
			goqu.I("t.name").As("name"),
			goqu.I("t.color").As("color"),
			goqu.I("t.slug").As("slug"),
		).
		Where(goqu.I("rt.recipe_id").In(ids)).
		Order(goqu.I("t.id").Asc())
	if err := r.db.Select(ctx, r.db.SQL, &tags, tagDs); err != nil {
		return fmt.Errorf("failed to load recipe tags: %w", err)
	}
	for _, row := range tags {
		i := index[row.RecipeID]
		recipes[i].Tags = append(recipes[i].Tags, row.Tag)
	}

	var ingredients []recipeIngredientRow
	ingDs := r.db.Dialect.From(goqu.T("recipe_ingredients").As("ri")).
		Join(goqu.T("ingredients").As("i"), goqu.On(goqu.I("i.id").Eq(goqu.I("ri.ingredient_id")))).
		Select(
			goqu.I("ri.recipe_id").As("recipe_id"),
			goqu.I("i.id").As("id"),
			goqu.I("i.name").As("name"),
			goqu.I("i.measurement_unit").As("measurement_unit"),
			goqu.I("ri.amount").As("amount"),
		).
		Where(goqu.I("ri.recipe_id").In(ids)).
		Order(goqu.I("i.name").Asc())
	if err := r.db.Select(ctx, r.db.SQL, &ingredients, ingDs); err != nil {
		return fmt.Errorf("failed to load recipe ingredients: %w", err)
	}
	for _, row := range ingredients {
		i := index[row.RecipeID]
		recipes[i].Ingredients = append(recipes[i].Ingredients, row.IngredientAmount)
	}
	return nil
}

// Create validates and stores a new recipe written by authorID.
func (r *Repository) Create(ctx context.Context, authorID int64, d Draft) (*Recipe, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	var id int64
	err := r.db.InTx(ctx, func(tx *sqlx.Tx) error {
		if err := r.checkReferences(ctx, tx, d); err != nil {
			return err
		}

		var err error
		id, err = r.db.InsertID(ctx, tx, r.db.Dialect.Insert("recipes").Rows(goqu.Record{
			"author_id":    authorID,
			"name":         d.Name,
			"text":         d.Text,
			"cooking_time": d.CookingTime,
			"created_at":   r.now(),
		}))
		if err != nil {
			return fmt.Errorf("failed to insert recipe: %w", err)
		}
		return r.writeRelations(ctx, tx, id, d)
	})
	if err != nil {
		return nil, err
	}

	return r.Get(ctx, id, authorID)
}

// Update replaces the fields, ingredients and tags of a recipe.
func (r *Repository) Update(ctx context.Context, id, authorID int64, d Draft) (*Recipe, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	err := r.db.InTx(ctx, func(tx *sqlx.Tx) error {
		if err := r.checkAuthor(ctx, tx, id, authorID); err != nil {
			return err
		}
		if err := r.checkReferences(ctx, tx, d); err != nil {
			return err
		}

		upd := r.db.Dialect.Update("recipes").
			Set(goqu.Record{"name": d.Name, "text": d.Text, "cooking_time": d.CookingTime}).
			Where(goqu.Ex{"id": id})
		if _, err := r.db.Exec(ctx, tx, upd.Prepared(true)); err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}

		for _, table := range []string{"recipe_ingredients", "recipe_tags"} {
			del := r.db.Dialect.Delete(table).Where(goqu.Ex{"recipe_id": id})
			if _, err := r.db.Exec(ctx, tx, del.Prepared(true)); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return r.writeRelations(ctx, tx, id, d)
	})
	if err != nil {
		return nil, err
	}

	return r.Get(ctx, id, authorID)
}

// Delete removes a recipe. Only its author may do so.
func (r *Repository) Delete(ctx context.Context, id, authorID int64) error {
	return r.db.InTx(ctx, func(tx *sqlx.Tx) error {
		if err := r.checkAuthor(ctx, tx, id, authorID); err != nil {
			return err
		}
		del := r.db.Dialect.Delete("recipes").Where(goqu.Ex{"id": id})
		if _, err := r.db.Exec(ctx, tx, del.Prepared(true)); err != nil {
			return fmt.Errorf("failed to delete recipe: %w", err)
		}
		return nil
	})
}

func (r *Repository) checkAuthor(ctx context.Context, tx *sqlx.Tx, id, authorID int64) error {
	var owner int64
	ds := r.db.Dialect.From("recipes").Select("author_id").Where(goqu.Ex{"id": id})
	if err := r.db.Get(ctx, tx, &owner, ds); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to look up recipe author: %w", err)
	}
	if owner != authorID {
		return ErrForbidden
	}
	return nil
}

// checkReferences makes sure every ingredient and tag in d exists.
func (r *Repository) checkReferences(ctx context.Context, tx *sqlx.Tx, d Draft) error {
	checks := []struct {
		table string
		ids   []int64
	}{
		{"ingredients", d.ingredientIDs()},
		{"tags", d.Tags},
	}
	for _, c := range checks {
		var found int64
		ds := r.db.Dialect.From(c.table).Select(goqu.COUNT("*")).Where(goqu.I("id").In(c.ids))
		if err := r.db.Get(ctx, tx, &found, ds); err != nil {
			return fmt.Errorf("failed to check %s: %w", c.table, err)
		}
		if int(found) != len(c.ids) {
			return fmt.Errorf("%w: unknown %s referenced", ErrInvalidRecipe, c.table)
		}
	}
	return nil
}

func (r *Repository) writeRelations(ctx context.Context, tx *sqlx.Tx, id int64, d Draft) error {
	ingredients := make([]interface{}, len(d.Ingredients))
	for i, ing := range d.Ingredients {
		ingredients[i] = goqu.Record{"recipe_id": id, "ingredient_id": ing.ID, "amount": ing.Amount}
	}
	ins := r.db.Dialect.Insert("recipe_ingredients").Rows(ingredients...)
	if _, err := r.db.Exec(ctx, tx, ins.Prepared(true)); err != nil {
		return fmt.Errorf("failed to insert recipe ingredients: %w", err)
	}

	tags := make([]interface{}, len(d.Tags))
	for i, tagID := range d.Tags {
		tags[i] = goqu.Record{"recipe_id": id, "tag_id": tagID}
	}
	ins = r.db.Dialect.Insert("recipe_tags").Rows(tags...)
	if _, err := r.db.Exec(ctx, tx, ins.Prepared(true)); err != nil {
		return fmt.Errorf("failed to insert recipe tags: %w", err)
	}
	return nil
}
