package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"foodgram/internal/database"
)

// ListTags returns every tag ordered by id.
func (r *Repository) ListTags(ctx context.Context) ([]Tag, error) {
	tags := []Tag{}
	ds := r.db.Dialect.From("tags").Select("id", "name", "color", "slug").Order(goqu.I("id").Asc())
	if err := r.db.Select(ctx, r.db.SQL, &tags, ds); err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// GetTag retrieves a tag by its ID.
func (r *Repository) GetTag(ctx context.Context, id int64) (*Tag, error) {
	var tag Tag
	ds := r.db.Dialect.From("tags").Select("id", "name", "color", "slug").Where(goqu.Ex{"id": id})
	if err := r.db.Get(ctx, r.db.SQL, &tag, ds); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return &tag, nil
}

// CreateTag inserts a tag and returns it with its id set.
func (r *Repository) CreateTag(ctx context.Context, tag Tag) (*Tag, error) {
	id, err := r.db.InsertID(ctx, r.db.SQL, r.db.Dialect.Insert("tags").Rows(goqu.Record{
		"name":  tag.Name,
		"color": tag.Color,
		"slug":  tag.Slug,
	}))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrTagExists
		}
		return nil, fmt.Errorf("failed to insert tag: %w", err)
	}
	tag.ID = id
	return &tag, nil
}
