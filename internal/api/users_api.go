package api

import (
	"errors"
	"net/http"

	"domovoy/internal/metrics"
	"domovoy/internal/models"
	"domovoy/internal/store"
)

// UserRequest is the request body for creating or updating a member.
type UserRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Color  string `json:"color,omitempty"`
}

// handleUsers lists members or creates one.
// GET /api/users, POST /api/users
func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("users")

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"users": s.db.Users()})

	case http.MethodPost:
		var req UserRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		u := models.User{Name: req.Name, Avatar: req.Avatar, Color: req.Color}
		if err := s.db.CreateUser(&u); err != nil {
			s.log.Error().Err(err).Str("name", req.Name).Msg("failed to create user")
			writeError(w, http.StatusInternalServerError, "failed to create user")
			return
		}
		writeJSON(w, http.StatusCreated, u)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleUserByID updates or deletes a single member.
// PUT /api/users/{id}, DELETE /api/users/{id}
func (s *Server) handleUserByID(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("user_by_id")

	id := pathID(r.URL.Path, "/api/users/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "user id is required")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req UserRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}

		existing := s.db.UserByID(id)
		existing.ID = id
		existing.Name = req.Name
		existing.Avatar = req.Avatar
		existing.Color = req.Color

		if err := s.db.UpdateUser(existing); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "user not found")
				return
			}
			s.log.Error().Err(err).Str("user_id", id).Msg("failed to update user")
			writeError(w, http.StatusInternalServerError, "failed to update user")
			return
		}
		writeJSON(w, http.StatusOK, existing)

	case http.MethodDelete:
		if err := s.db.DeleteUser(id); err != nil {
			switch {
			case errors.Is(err, store.ErrLastUser):
				writeError(w, http.StatusConflict, "cannot delete the last member")
			case errors.Is(err, store.ErrNotFound):
				writeError(w, http.StatusNotFound, "user not found")
			default:
				s.log.Error().Err(err).Str("user_id", id).Msg("failed to delete user")
				writeError(w, http.StatusInternalServerError, "failed to delete user")
			}
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
