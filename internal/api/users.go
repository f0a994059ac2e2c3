package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"taskfeed/pkg/user"
)

var errNoUser = apiError{http.StatusNotFound, "usernotfound", "No user found"}

type registerRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
}

type registerResponse struct {
	User  *user.User `json:"user"`
	Token string     `json:"token"`
}

func (s *Server) handleUserRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		errMalformedDraft.write(w)
		return
	}
	u, err := s.users.Register(r.Context(), req.Name, req.Email, req.Avatar)
	switch {
	case errors.Is(err, user.ErrNameRequired):
		writeError(w, http.StatusBadRequest, "name", "Name field is required")
		return
	case errors.Is(err, user.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "email", "Email is invalid")
		return
	case err != nil:
		s.log.WithError(err).WithField("component", "users").Error("register user")
		errUnavailable.write(w)
		return
	}
	token, err := s.tokens.Issue(u.ID, u.Name)
	if err != nil {
		s.log.WithError(err).WithField("user_id", u.ID).Error("issue token")
		errInternal.write(w)
		return
	}
	writeJSON(w, http.StatusOK, registerResponse{User: u, Token: token})
}

func (s *Server) handleUserGet(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.Get(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, user.ErrNotFound):
		errNoUser.write(w)
	case err != nil:
		s.log.WithError(err).WithField("component", "users").Error("get user")
		errUnavailable.write(w)
	default:
		writeJSON(w, http.StatusOK, u)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	taskCount, err := s.tasks.Count(ctx)
	if err != nil {
		errUnavailable.write(w)
		return
	}
	activityCount, _ := s.activity.Count(ctx)

	writeJSON(w, http.StatusOK, map[string]any{
		"tasks":    taskCount,
		"activity": activityCount,
	})
}
