package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for malformed, forged, expired or revoked tokens.
var ErrInvalidToken = errors.New("invalid token")

var errNoRevocations = errors.New("token revocation is not configured")

const issuer = "foodgram"

// RevocationStore remembers logged out token ids.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Tokens issues and verifies HS256 access tokens carrying a user id.
type Tokens struct {
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
	revoked RevocationStore
}

// NewTokens creates a token service signing with secret. A nil store
// disables revocation checks and makes Revoke fail.
func NewTokens(secret string, ttl time.Duration, revoked RevocationStore) *Tokens {
	return &Tokens{
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
		revoked: revoked,
	}
}

// Issue creates a signed token for userID.
func (t *Tokens) Issue(userID int64) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    issuer,
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, expiry and revocation of token and returns
// the user id it was issued for.
func (t *Tokens) Verify(ctx context.Context, token string) (int64, error) {
	claims, id, err := t.parse(token)
	if err != nil {
		return 0, err
	}
	if t.revoked == nil {
		return id, nil
	}

	revoked, err := t.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return 0, err
	}
	if revoked {
		return 0, fmt.Errorf("%w: token has been revoked", ErrInvalidToken)
	}
	return id, nil
}

// Revoke invalidates token until it would have expired.
func (t *Tokens) Revoke(ctx context.Context, token string) error {
	if t.revoked == nil {
		return errNoRevocations
	}
	claims, _, err := t.parse(token)
	if err != nil {
		return err
	}
	if claims.ID == "" {
		return fmt.Errorf("%w: missing token id", ErrInvalidToken)
	}
	return t.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (t *Tokens) parse(token string) (*jwt.RegisteredClaims, int64, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, 0, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, claims.Subject)
	}
	return &claims, id, nil
}

type contextKey struct{}

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserID returns the authenticated user id stored in ctx.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(contextKey{}).(int64)
	return id, ok && id > 0
}
