package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"foodgram/internal/auth"
	"foodgram/internal/recipe"
	"foodgram/internal/shopping"
	"foodgram/internal/user"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Errors string `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, recipe.ErrInvalidRecipe),
		errors.Is(err, user.ErrInvalidUser),
		errors.Is(err, user.ErrInvalidCredentials),
		errors.Is(err, user.ErrSelfSubscription),
		errors.Is(err, user.ErrNotSubscribed),
		errors.Is(err, recipe.ErrNotFavorited),
		errors.Is(err, shopping.ErrNotInCart):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, errAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, recipe.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, recipe.ErrNotFound),
		errors.Is(err, user.ErrNotFound),
		errors.Is(err, shopping.ErrRecipeNotFound):
		return http.StatusNotFound
	case errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, user.ErrUsernameTaken),
		errors.Is(err, user.ErrAlreadySubscribed),
		errors.Is(err, recipe.ErrAlreadyFavorited),
		errors.Is(err, shopping.ErrAlreadyInCart):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Errors: msg})
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, raw)
	}
	return id, nil
}

func intQuery(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, key)
	}
	return n, nil
}

func boolQuery(r *http.Request, key string) bool {
	switch r.URL.Query().Get(key) {
	case "1", "true", "True":
		return true
	}
	return false
}
