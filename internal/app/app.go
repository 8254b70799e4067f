// Package app wires the repositories, services and stores that every binary shares.
package app

import (
	"fmt"
	"net/http"
	"path/filepath"

	"go.uber.org/zap"

	"foodgram/internal/auth"
	"foodgram/internal/config"
	"foodgram/internal/database"
	"foodgram/internal/document"
	"foodgram/internal/httpapi"
	"foodgram/internal/metrics"
	"foodgram/internal/recipe"
	"foodgram/internal/shopping"
	"foodgram/internal/storage"
	"foodgram/internal/telegram"
	"foodgram/internal/user"
)

// App holds the application's dependencies.
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *database.DB

	Users    *user.Repository
	Recipes  *recipe.Repository
	Cart     *shopping.CartRepository
	Shopping *shopping.Service
	Tokens   *auth.Tokens
	Revoked  *auth.Revocations
	Metrics  *metrics.Store
	Lists    *storage.ListStore
}

// New opens the configured database and builds the application on top of it.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := database.NewDB(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a, err := NewWithDB(cfg, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

// NewWithDB builds the application on an already migrated database.
func NewWithDB(cfg *config.Config, db *database.DB, logger *zap.Logger) (*App, error) {
	lists, err := storage.NewListStore(cfg.ArchivePath)
	if err != nil {
		return nil, err
	}

	cart := shopping.NewCartRepository(db)
	renderer := document.NewRenderer(cfg.FontPath, document.DefaultMetrics)
	revoked := auth.NewRevocations(db)

	return &App{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		Users:    user.NewRepository(db),
		Recipes:  recipe.NewRepository(db),
		Cart:     cart,
		Shopping: shopping.NewService(cart, renderer, cfg.ShoppingListFilename, logger),
		Tokens:   auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL, revoked),
		Revoked:  revoked,
		Metrics:  metrics.NewStore(db),
		Lists:    lists,
	}, nil
}

// Close releases the database connection.
func (a *App) Close() error {
	return a.db.Close()
}

// Handler returns the HTTP API.
func (a *App) Handler() http.Handler {
	return httpapi.NewServer(httpapi.Deps{
		Users:              a.Users,
		Recipes:            a.Recipes,
		Cart:               a.Cart,
		Shopping:           a.Shopping,
		Tokens:             a.Tokens,
		Metrics:            a.Metrics,
		Logger:             a.logger,
		CORSAllowedOrigins: a.cfg.CORSAllowedOrigins,
		DataPath:           a.dataPath(),
	}).Router()
}

// BotDeps returns the collaborators of the Telegram bot.
func (a *App) BotDeps() telegram.Deps {
	return telegram.Deps{
		Users:   a.Users,
		Cart:    a.Cart,
		Lists:   a.Shopping,
		Tokens:  a.Tokens,
		Metrics: a.Metrics,
	}
}

func (a *App) dataPath() string {
	if a.cfg.DatabaseDriver != config.DriverSQLite {
		return a.cfg.ArchivePath
	}
	return filepath.Dir(a.cfg.DatabasePath)
}
