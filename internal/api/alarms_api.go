package api

import (
	"errors"
	"net/http"
	"time"

	"domovoy/internal/metrics"
	"domovoy/internal/store"
)

// DefaultSnoozeMinutes applies when a snooze request names no duration.
const DefaultSnoozeMinutes = 10

// handleAlarms returns the currently ringing alarms in firing order.
// GET /api/alarms
func (s *Server) handleAlarms(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("alarms")

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	alarms := s.engine.ActiveAlarms()
	type alarmView struct {
		Reminder any `json:"reminder"`
		Owner    any `json:"owner"`
	}
	views := make([]alarmView, 0, len(alarms))
	for _, a := range alarms {
		views = append(views, alarmView{Reminder: a, Owner: s.db.UserByID(a.UserID)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"alarms": views})
}

// handleCompleteAlarm marks the reminder behind a ringing alarm done.
// POST /api/alarms/complete
func (s *Server) handleCompleteAlarm(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("alarms_complete")

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

	if err := s.engine.Complete(req.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "reminder not found")
			return
		}
		s.log.Error().Err(err).Str("reminder_id", req.ID).Msg("failed to complete reminder")
		writeError(w, http.StatusInternalServerError, "failed to complete reminder")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleSnoozeAlarms snoozes one ringing alarm, or all of them when no id
// is given.
// POST /api/alarms/snooze
func (s *Server) handleSnoozeAlarms(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("alarms_snooze")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		ID      string `json:"id,omitempty"`
		Minutes int    `json:"minutes,omitempty"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Minutes < 0 {
		writeError(w, http.StatusBadRequest, "minutes must be positive")
		return
	}
	if req.Minutes == 0 {
		req.Minutes = DefaultSnoozeMinutes
	}
	d := time.Duration(req.Minutes) * time.Minute

	if req.ID != "" {
		if err := s.engine.Snooze(req.ID, d); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "reminder not found")
				return
			}
			s.log.Error().Err(err).Str("reminder_id", req.ID).Msg("failed to snooze reminder")
			writeError(w, http.StatusInternalServerError, "failed to snooze reminder")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "snoozed": []string{req.ID}})
		return
	}

	snoozed := s.engine.SnoozeAll(d)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "snoozed": snoozed})
}
