package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.cart.AddRecipe(r.Context(), viewer(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	rec, err := s.recipes.Get(r.Context(), id, viewer(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newShortRecipe(rec))
}

func (s *Server) removeFromCart(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.cart.RemoveRecipe(r.Context(), viewer(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// downloadShoppingCart streams the aggregated shopping list of the caller's
// cart as a PDF attachment.
func (s *Server) downloadShoppingCart(w http.ResponseWriter, r *http.Request) {
	userID := viewer(r)
	start := time.Now()

	doc, err := s.shopping.Download(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.recordRender(r.Context(), userID, doc, time.Since(start))

	s.logger.Debug("serving shopping list", zap.Int64("user_id", userID), zap.String("filename", doc.Filename))

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	http.ServeContent(w, r, doc.Filename, time.Time{}, doc.Content)
}
