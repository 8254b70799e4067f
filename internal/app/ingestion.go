package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"foodgram/internal/metrics"
	"foodgram/internal/recipe"
	"foodgram/internal/shopping"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ImportIngredients loads a JSON array of {"name", "measurement_unit"} objects
// into the ingredient catalogue. Entries already present are skipped, so the
// same file can be imported repeatedly.
func (a *App) ImportIngredients(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open ingredients file: %w", err)
	}
	defer f.Close()

	var ingredients []recipe.Ingredient
	if err := json.NewDecoder(f).Decode(&ingredients); err != nil {
		return 0, fmt.Errorf("failed to decode ingredients file %s: %w", path, err)
	}

	inserted, err := a.Recipes.ImportIngredients(ctx, ingredients)
	if err != nil {
		return 0, err
	}

	a.logger.Info("ingredients imported",
		zap.String("path", path),
		zap.Int("read", len(ingredients)),
		zap.Int("inserted", inserted),
	)
	return inserted, nil
}

// WriteShoppingList renders the user's shopping list to out.
func (a *App) WriteShoppingList(ctx context.Context, userID int64, out io.Writer) (*shopping.Document, error) {
	start := time.Now()
	doc, err := a.Shopping.Download(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := io.Copy(out, doc.Content); err != nil {
		return nil, fmt.Errorf("failed to write shopping list: %w", err)
	}
	a.record(ctx, userID, doc, time.Since(start))
	return doc, nil
}

// ArchiveShoppingList renders the user's shopping list into the archive,
// replacing the previous version. It returns the path written.
func (a *App) ArchiveShoppingList(ctx context.Context, userID int64) (string, error) {
	start := time.Now()
	doc, err := a.Shopping.Download(ctx, userID)
	if err != nil {
		return "", err
	}

	path, err := a.Lists.Save(userID, start, doc.Content)
	if err != nil {
		return "", fmt.Errorf("failed to archive shopping list: %w", err)
	}
	a.record(ctx, userID, doc, time.Since(start))

	a.logger.Info("shopping list archived", zap.Int64("user_id", userID), zap.String("path", path))
	return path, nil
}

// PruneMetrics drops render metrics older than the given number of days.
func (a *App) PruneMetrics(ctx context.Context, olderThanDays int) (int64, error) {
	n, err := a.Metrics.Cleanup(ctx, olderThanDays)
	if err != nil {
		return 0, err
	}
	a.logger.Info("render metrics pruned", zap.Int("older_than_days", olderThanDays), zap.Int64("removed", n))
	return n, nil
}

// PruneRevokedTokens drops revocations of tokens that have expired anyway.
func (a *App) PruneRevokedTokens(ctx context.Context) (int64, error) {
	n, err := a.Revoked.Purge(ctx)
	if err != nil {
		return 0, err
	}
	a.logger.Info("revoked tokens pruned", zap.Int64("removed", n))
	return n, nil
}

func (a *App) record(ctx context.Context, userID int64, doc *shopping.Document, latency time.Duration) {
	if err := a.Metrics.Record(ctx, metrics.FromDocument(metrics.ChannelCLI, userID, doc, latency)); err != nil {
		a.logger.Warn("failed to record render metric", zap.Error(err))
	}
}
