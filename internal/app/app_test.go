package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"foodgram/internal/auth"
	"foodgram/internal/config"
	"foodgram/internal/database/dbtest"
	"foodgram/internal/metrics"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	cfg := config.Default()
	cfg.JWTSecret = "secret"
	cfg.ArchivePath = filepath.Join(t.TempDir(), "lists")

	a, err := NewWithDB(cfg, dbtest.New(t), zap.NewNop())
	require.NoError(t, err)
	return a
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ingredients.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// fillCart gives a fresh user a cart holding one recipe and returns the user id.
func fillCart(t *testing.T, a *App) int64 {
	t.Helper()
	ctx := context.Background()

	userID := dbtest.SeedUser(t, a.db, "alice")
	salt := dbtest.SeedIngredient(t, a.db, "Salt", "g")
	soup := dbtest.SeedRecipe(t, a.db, userID, "Soup", dbtest.Amount{IngredientID: salt, Amount: 15})
	require.NoError(t, a.Cart.AddRecipe(ctx, userID, soup))
	return userID
}

func TestImportIngredients(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	path := writeFile(t, `[
		{"name": "Flour", "measurement_unit": "g"},
		{"name": "Milk", "measurement_unit": "ml"},
		{"name": "Milk", "measurement_unit": "l"}
	]`)

	n, err := a.ImportIngredients(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	t.Run("Repeated", func(t *testing.T) {
		n, err := a.ImportIngredients(ctx, path)
		require.NoError(t, err)
		assert.Zero(t, n)

		all, err := a.Recipes.ListIngredients(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := a.ImportIngredients(ctx, filepath.Join(t.TempDir(), "missing.json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open ingredients file")
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := a.ImportIngredients(ctx, writeFile(t, `{"name": "Flour"}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode ingredients file")
	})
}

func TestWriteShoppingList(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	userID := fillCart(t, a)

	var buf bytes.Buffer
	doc, err := a.WriteShoppingList(ctx, userID, &buf)
	require.NoError(t, err)
	assert.Equal(t, "shopping_list.pdf", doc.Filename)
	assert.Equal(t, 1, doc.Items)

	r, err := pdf.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	var sb strings.Builder
	for _, text := range r.Page(1).Content().Text {
		sb.WriteString(text.S)
	}
	text := strings.ReplaceAll(sb.String(), " ", "")
	assert.Contains(t, text, "1.Salt-15g.")

	usage, err := a.Metrics.GetDailyUsage(ctx, 1)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, 1, usage[0].Renders)
}

func TestArchiveShoppingList(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)
	userID := fillCart(t, a)

	path, err := a.ArchiveShoppingList(ctx, userID)
	require.NoError(t, err)

	latest, err := a.Lists.Latest(userID)
	require.NoError(t, err)
	assert.Equal(t, path, latest)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestPruneMetrics(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	old := metrics.RenderMetric{Channel: metrics.ChannelCLI, UserID: 1, Timestamp: time.Now().AddDate(0, 0, -40)}
	fresh := metrics.RenderMetric{Channel: metrics.ChannelCLI, UserID: 1}
	require.NoError(t, a.Metrics.Record(ctx, old))
	require.NoError(t, a.Metrics.Record(ctx, fresh))

	n, err := a.PruneMetrics(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPruneRevokedTokens(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t)

	token, err := a.Tokens.Issue(1)
	require.NoError(t, err)
	require.NoError(t, a.Tokens.Revoke(ctx, token))
	require.NoError(t, a.Revoked.Revoke(ctx, "expired", time.Now().Add(-time.Hour)))

	n, err := a.PruneRevokedTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = a.Tokens.Verify(ctx, token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestHandler(t *testing.T) {
	a := newTestApp(t)
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
