package user

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"foodgram/internal/database"
)

// Subscribe makes userID follow authorID.
func (r *Repository) Subscribe(ctx context.Context, userID, authorID int64) error {
	if userID == authorID {
		return ErrSelfSubscription
	}
	if _, err := r.Get(ctx, authorID); err != nil {
		return err
	}

	ds := r.db.Dialect.Insert("subscriptions").Rows(goqu.Record{"user_id": userID, "author_id": authorID})
	if _, err := r.db.Exec(ctx, r.db.SQL, ds.Prepared(true)); err != nil {
		if database.IsUniqueViolation(err) {
			return ErrAlreadySubscribed
		}
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	return nil
}

// Unsubscribe stops userID from following authorID.
func (r *Repository) Unsubscribe(ctx context.Context, userID, authorID int64) error {
	ds := r.db.Dialect.Delete("subscriptions").Where(goqu.Ex{"user_id": userID, "author_id": authorID})
	res, err := r.db.Exec(ctx, r.db.SQL, ds.Prepared(true))
	if err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotSubscribed
	}
	return nil
}

type recipeCount struct {
	AuthorID int64 `db:"author_id"`
	Count    int   `db:"recipes_count"`
}

// Subscriptions lists the authors userID follows, each with their recipe
// count and up to recipesLimit of their newest recipes. A limit of zero or
// less includes every recipe.
func (r *Repository) Subscriptions(ctx context.Context, userID int64, recipesLimit int) ([]Subscription, error) {
	var authors []User
	ds := r.users(userID).
		Join(goqu.T("subscriptions").As("sub"), goqu.On(goqu.I("sub.author_id").Eq(goqu.I("u.id")))).
		Where(goqu.I("sub.user_id").Eq(userID)).
		Order(goqu.I("u.username").Asc())
	if err := r.db.Select(ctx, r.db.SQL, &authors, ds); err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	subs := make([]Subscription, 0, len(authors))
	if len(authors) == 0 {
		return subs, nil
	}

	ids := make([]int64, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}

	var counts []recipeCount
	countDs := r.db.Dialect.From("recipes").
		Select(goqu.I("author_id"), goqu.COUNT("*").As("recipes_count")).
		Where(goqu.I("author_id").In(ids)).
		GroupBy("author_id")
	if err := r.db.Select(ctx, r.db.SQL, &counts, countDs); err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}
	byAuthor := make(map[int64]int, len(counts))
	for _, c := range counts {
		byAuthor[c.AuthorID] = c.Count
	}

	for _, author := range authors {
		recipes := []RecipeSummary{}
		recipeDs := r.db.Dialect.From("recipes").
			Select("id", "name", "cooking_time").
			Where(goqu.Ex{"author_id": author.ID}).
			Order(goqu.I("created_at").Desc(), goqu.I("id").Desc())
		if recipesLimit > 0 {
			recipeDs = recipeDs.Limit(uint(recipesLimit))
		}
		if err := r.db.Select(ctx, r.db.SQL, &recipes, recipeDs); err != nil {
			return nil, fmt.Errorf("failed to list recipes of %s: %w", author.Username, err)
		}

		subs = append(subs, Subscription{
			User:         author,
			RecipesCount: byAuthor[author.ID],
			Recipes:      recipes,
		})
	}
	return subs, nil
}
