package api

import (
	"errors"
	"net/http"
	"time"

	"domovoy/internal/metrics"
	"domovoy/internal/models"
	"domovoy/internal/store"
)

// ReminderRequest is the request body for creating or updating a reminder.
type ReminderRequest struct {
	UserID     string `json:"user_id"`
	Title      string `json:"title"`
	Date       string `json:"date"` // YYYY-MM-DD
	Time       string `json:"time"` // HH:MM
	Recurrence string `json:"recurrence,omitempty"`
	Type       string `json:"type,omitempty"`
}

func (req *ReminderRequest) validate() string {
	if req.Title == "" {
		return "title is required"
	}
	if req.Time == "" {
		return "time is required"
	}
	if _, err := time.ParseInLocation(models.TimeLayout, req.Time, time.Local); err != nil {
		return "invalid time format; expected HH:MM"
	}
	if req.Date != "" {
		if _, err := time.ParseInLocation(models.DateLayout, req.Date, time.Local); err != nil {
			return "invalid date format; expected YYYY-MM-DD"
		}
	}
	if req.Recurrence != "" && !models.Recurrence(req.Recurrence).Valid() {
		return "invalid recurrence"
	}
	if req.Type != "" && !models.ReminderType(req.Type).Valid() {
		return "invalid type"
	}
	return ""
}

// handleReminders lists reminders or creates one.
// GET /api/reminders, POST /api/reminders
func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reminders")

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"reminders": s.db.Reminders()})

	case http.MethodPost:
		var req ReminderRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		rem := models.Reminder{
			UserID:     req.UserID,
			Title:      req.Title,
			Date:       req.Date,
			Time:       req.Time,
			Recurrence: models.Recurrence(req.Recurrence),
			Type:       models.ReminderType(req.Type),
		}
		if err := s.db.CreateReminder(&rem); err != nil {
			s.log.Error().Err(err).Str("title", req.Title).Msg("failed to create reminder")
			writeError(w, http.StatusInternalServerError, "failed to create reminder")
			return
		}
		writeJSON(w, http.StatusCreated, rem)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleReminderByID updates or deletes a single reminder.
// PUT /api/reminders/{id}, DELETE /api/reminders/{id}
func (s *Server) handleReminderByID(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reminder_by_id")

	id := pathID(r.URL.Path, "/api/reminders/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "reminder id is required")
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req ReminderRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		existing, err := s.db.ReminderByID(id)
		if err != nil {
			writeError(w, http.StatusNotFound, "reminder not found")
			return
		}

		existing.UserID = req.UserID
		existing.Title = req.Title
		existing.Date = req.Date
		existing.Time = req.Time
		existing.Recurrence = models.Recurrence(req.Recurrence)
		existing.Type = models.ReminderType(req.Type)
		existing.Normalize(time.Now())

		if err := s.db.UpdateReminder(existing); err != nil {
			s.log.Error().Err(err).Str("reminder_id", id).Msg("failed to update reminder")
			writeError(w, http.StatusInternalServerError, "failed to update reminder")
			return
		}
		writeJSON(w, http.StatusOK, existing)

	case http.MethodDelete:
		if err := s.db.DeleteReminder(id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "reminder not found")
				return
			}
			s.log.Error().Err(err).Str("reminder_id", id).Msg("failed to delete reminder")
			writeError(w, http.StatusInternalServerError, "failed to delete reminder")
			return
		}
		// A ringing alarm for a deleted reminder must stop ringing.
		s.engine.Dismiss(id)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleUncomplete reopens a completed reminder.
// POST /api/reminders/uncomplete
func (s *Server) handleUncomplete(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("uncomplete")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		ID string `json:"id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := s.engine.Uncomplete(req.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "reminder not found")
			return
		}
		s.log.Error().Err(err).Str("reminder_id", req.ID).Msg("failed to uncomplete reminder")
		writeError(w, http.StatusInternalServerError, "failed to uncomplete reminder")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
