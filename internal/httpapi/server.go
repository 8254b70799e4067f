// Package httpapi exposes the recipe, cart and shopping list operations over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"foodgram/internal/auth"
	"foodgram/internal/metrics"
	"foodgram/internal/recipe"
	"foodgram/internal/shopping"
	"foodgram/internal/user"
)

// Deps are the collaborators the API is built on. Metrics may be nil.
type Deps struct {
	Users    *user.Repository
	Recipes  *recipe.Repository
	Cart     *shopping.CartRepository
	Shopping *shopping.Service
	Tokens   *auth.Tokens
	Metrics  *metrics.Store
	Logger   *zap.Logger

	CORSAllowedOrigins []string
	DataPath           string
}

// Server serves the JSON API.
type Server struct {
	users    *user.Repository
	recipes  *recipe.Repository
	cart     *shopping.CartRepository
	shopping *shopping.Service
	tokens   *auth.Tokens
	metrics  *metrics.Store
	logger   *zap.Logger

	corsOrigins []string
	dataPath    string
}

// NewServer creates a new API server.
func NewServer(d Deps) *Server {
	return &Server{
		users:       d.Users,
		recipes:     d.Recipes,
		cart:        d.Cart,
		shopping:    d.Shopping,
		tokens:      d.Tokens,
		metrics:     d.Metrics,
		logger:      d.Logger,
		corsOrigins: d.CORSAllowedOrigins,
		dataPath:    d.DataPath,
	}
}

// Router builds the HTTP handler with every route registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	origins := s.corsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Post("/auth/token/login", s.login)
		r.With(s.requireUser).Post("/auth/token/logout", s.logout)

		r.Route("/users", func(r chi.Router) {
			r.Post("/", s.register)
			r.Get("/", s.listUsers)
			r.Group(func(r chi.Router) {
				r.Use(s.requireUser)
				r.Get("/me", s.me)
				r.Post("/set_password", s.setPassword)
				r.Get("/subscriptions", s.subscriptions)
				r.Post("/{id}/subscribe", s.subscribe)
				r.Delete("/{id}/subscribe", s.unsubscribe)
			})
			r.Get("/{id}", s.getUser)
		})

		r.Get("/tags", s.listTags)
		r.Get("/tags/{id}", s.getTag)
		r.Get("/ingredients", s.listIngredients)
		r.Get("/ingredients/{id}", s.getIngredient)

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", s.listRecipes)
			r.Get("/{id}", s.getRecipe)
			r.Group(func(r chi.Router) {
				r.Use(s.requireUser)
				r.Post("/", s.createRecipe)
				r.Get("/download_shopping_cart", s.downloadShoppingCart)
				r.Patch("/{id}", s.updateRecipe)
				r.Delete("/{id}", s.deleteRecipe)
				r.Post("/{id}/favorite", s.addFavorite)
				r.Delete("/{id}/favorite", s.removeFavorite)
				r.Post("/{id}/shopping_cart", s.addToCart)
				r.Delete("/{id}/shopping_cart", s.removeFromCart)
			})
		})
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metrics.Snapshot(s.dataPath))
}

func (s *Server) recordRender(ctx context.Context, userID int64, doc *shopping.Document, latency time.Duration) {
	if s.metrics == nil {
		return
	}
	if err := s.metrics.Record(ctx, metrics.FromDocument(metrics.ChannelHTTP, userID, doc, latency)); err != nil {
		s.logger.Warn("failed to record render metric", zap.Error(err))
	}
}
