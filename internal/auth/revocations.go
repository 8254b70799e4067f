package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"foodgram/internal/database"
)

// Revocations persists the ids of tokens that were logged out before they expired.
type Revocations struct {
	db  *database.DB
	now func() time.Time
}

// NewRevocations creates a revocation store backed by db.
func NewRevocations(db *database.DB) *Revocations {
	return &Revocations{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Revoke marks jti as revoked until expiresAt. Revoking twice is a no-op.
func (r *Revocations) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ds := r.db.Dialect.Insert("revoked_tokens").
		Rows(goqu.Record{"jti": jti, "expires_at": expiresAt.UTC()}).
		OnConflict(goqu.DoNothing())
	if _, err := r.db.Exec(ctx, r.db.SQL, ds.Prepared(true)); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether jti was revoked.
func (r *Revocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var n int
	ds := r.db.Dialect.From("revoked_tokens").
		Select(goqu.COUNT("*")).
		Where(goqu.Ex{"jti": jti})
	if err := r.db.Get(ctx, r.db.SQL, &n, ds); err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

// Purge drops revocations whose tokens have expired anyway.
func (r *Revocations) Purge(ctx context.Context) (int64, error) {
	ds := r.db.Dialect.Delete("revoked_tokens").
		Where(goqu.C("expires_at").Lt(r.now()))
	res, err := r.db.Exec(ctx, r.db.SQL, ds.Prepared(true))
	if err != nil {
		return 0, fmt.Errorf("failed to purge revoked tokens: %w", err)
	}
	return res.RowsAffected()
}
