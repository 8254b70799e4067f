package httpapi

import (
	"fmt"
	"net/http"

	"foodgram/internal/user"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AuthToken string `json:"auth_token"`
}

type setPasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	u, err := s.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{AuthToken: token})
}

// logout revokes the token the request was authenticated with.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	token, err := requestToken(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.tokens.Revoke(r.Context(), token); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var reg user.Registration
	if err := decode(r, &reg); err != nil {
		s.writeError(w, r, err)
		return
	}

	u, err := s.users.Create(r.Context(), reg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context(), viewer(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	u, err := s.users.GetFor(r.Context(), id, viewer(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.Get(r.Context(), viewer(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) setPassword(w http.ResponseWriter, r *http.Request) {
	var req setPasswordRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.users.SetPassword(r.Context(), viewer(r), req.CurrentPassword, req.NewPassword); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) subscriptions(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "recipes_limit", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	subs, err := s.users.Subscriptions(r.Context(), viewer(r), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) {
	authorID, err := idParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.users.Subscribe(r.Context(), viewer(r), authorID); err != nil {
		s.writeError(w, r, err)
		return
	}

	author, err := s.users.GetFor(r.Context(), authorID, viewer(r))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to load author: %w", err))
		return
	}
	writeJSON(w, http.StatusCreated, author)
}

func (s *Server) unsubscribe(w http.ResponseWriter, r *http.Request) {
	authorID, err := idParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.users.Unsubscribe(r.Context(), viewer(r), authorID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
