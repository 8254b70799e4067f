package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"foodgram/internal/recipe"
)

const defaultPageSize = 6

// shortRecipe is returned when a recipe is added to favorites or the cart.
type shortRecipe struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	CookingTime int    `json:"cooking_time"`
}

func newShortRecipe(rec *recipe.Recipe) shortRecipe {
	return shortRecipe{ID: rec.ID, Name: rec.Name, CookingTime: rec.CookingTime}
}

func (s *Server) listRecipes(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", defaultPageSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := intQuery(r, "page", 1)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if page < 1 {
		page = 1
	}

	f := recipe.Filter{
		ViewerID:      viewer(r),
		TagSlugs:      r.URL.Query()["tags"],
		FavoritedOnly: boolQuery(r, "is_favorited"),
		InCartOnly:    boolQuery(r, "is_in_shopping_cart"),
		Limit:         limit,
		Offset:        (page - 1) * limit,
	}
	if raw := r.URL.Query().Get("author"); raw != "" {
		author, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.writeError(w, r, fmt.Errorf("%w: invalid author %q", errBadRequest, raw))
			return
		}
		f.AuthorID = author
	}

	result, err := s.recipes.List(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) getRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rec, err := s.recipes.Get(r.Context(), id, viewer(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) createRecipe(w http.ResponseWriter, r *http.Request) {
	var d recipe.Draft
	if err := decode(r, &d); err != nil {
		s.writeError(w, r, err)
		return
	}

	rec, err := s.recipes.Create(r.Context(), viewer(r), d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) updateRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var d recipe.Draft
	if err := decode(r, &d); err != nil {
		s.writeError(w, r, err)
		return
	}

	rec, err := s.recipes.Update(r.Context(), id, viewer(r), d)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) deleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.recipes.Delete(r.Context(), id, viewer(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.recipes.AddFavorite(r.Context(), viewer(r), id); err != nil {
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

func (s *Server) removeFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.recipes.RemoveFavorite(r.Context(), viewer(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
