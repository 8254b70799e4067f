package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodgram/internal/database/dbtest"
)

func TestTokens(t *testing.T) {
	ctx := context.Background()
	tokens := NewTokens("secret", time.Hour, nil)

	t.Run("RoundTrip", func(t *testing.T) {
		token, err := tokens.Issue(42)
		require.NoError(t, err)

		id, err := tokens.Verify(ctx, token)
		require.NoError(t, err)
		assert.EqualValues(t, 42, id)
	})

	t.Run("UniqueIDs", func(t *testing.T) {
		a, err := tokens.Issue(1)
		require.NoError(t, err)
		b, err := tokens.Issue(1)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("Expired", func(t *testing.T) {
		old := NewTokens("secret", time.Hour, nil)
		old.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := old.Issue(1)
		require.NoError(t, err)

		_, err = tokens.Verify(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		token, err := NewTokens("other", time.Hour, nil).Issue(1)
		require.NoError(t, err)

		_, err = tokens.Verify(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongAlgorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = tokens.Verify(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := tokens.Verify(ctx, "not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("RevokeWithoutStore", func(t *testing.T) {
		token, err := tokens.Issue(1)
		require.NoError(t, err)
		assert.ErrorIs(t, tokens.Revoke(ctx, token), errNoRevocations)
	})
}

func TestRevocation(t *testing.T) {
	ctx := context.Background()
	store := NewRevocations(dbtest.New(t))
	tokens := NewTokens("secret", time.Hour, store)

	t.Run("RevokedTokenIsRejected", func(t *testing.T) {
		token, err := tokens.Issue(5)
		require.NoError(t, err)
		other, err := tokens.Issue(5)
		require.NoError(t, err)

		require.NoError(t, tokens.Revoke(ctx, token))
		_, err = tokens.Verify(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)

		id, err := tokens.Verify(ctx, other)
		require.NoError(t, err)
		assert.EqualValues(t, 5, id)
	})

	t.Run("RevokeTwice", func(t *testing.T) {
		token, err := tokens.Issue(6)
		require.NoError(t, err)
		require.NoError(t, tokens.Revoke(ctx, token))
		require.NoError(t, tokens.Revoke(ctx, token))
	})

	t.Run("RevokeInvalidToken", func(t *testing.T) {
		assert.ErrorIs(t, tokens.Revoke(ctx, "not-a-token"), ErrInvalidToken)
	})

	t.Run("Purge", func(t *testing.T) {
		now := time.Now().UTC()
		require.NoError(t, store.Revoke(ctx, "expired", now.Add(-time.Minute)))
		require.NoError(t, store.Revoke(ctx, "live", now.Add(time.Hour)))

		n, err := store.Purge(ctx)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, int64(1))

		revoked, err := store.IsRevoked(ctx, "expired")
		require.NoError(t, err)
		assert.False(t, revoked)

		revoked, err = store.IsRevoked(ctx, "live")
		require.NoError(t, err)
		assert.True(t, revoked)
	})
}

func TestUserIDContext(t *testing.T) {
	_, ok := UserID(context.Background())
	assert.False(t, ok)

	id, ok := UserID(WithUserID(context.Background(), 7))
	assert.True(t, ok)
	assert.EqualValues(t, 7, id)
}
