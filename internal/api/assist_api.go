package api

import (
	"fmt"
	"net/http"
	"time"

	"domovoy/internal/assist"
	"domovoy/internal/audit"
	"domovoy/internal/metrics"
)

// AssistParseResponse is the outcome of a natural-language request:
// either the reminder that was created, or a clarification question the
// client should read back to the user.
type AssistParseResponse struct {
	Action   string `json:"action"`
	Reminder any    `json:"reminder,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
}

// handleAssistParse turns free text into a reminder.
// POST /api/assist/parse
func (s *Server) handleAssistParse(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("assist_parse")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.parser == nil {
		writeError(w, http.StatusServiceUnavailable, "assist is not configured")
		return
	}

	var req struct {
		Text   string `json:"text"`
		UserID string `json:"user_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	speaker := s.db.UserByID(req.UserID)
	users := s.db.Users()
	members := make([]string, 0, len(users))
	for _, u := range users {
		members = append(members, u.Name)
	}

	now := time.Now()
	result, err := s.parser.Parse(r.Context(), req.Text, speaker.Name, members, now)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", req.UserID).Msg("assist parse failed")
		writeError(w, http.StatusBadGateway, "could not understand the request, try again")
		return
	}

	if result.Action == assist.ActionClarify {
		writeJSON(w, http.StatusOK, AssistParseResponse{
			Action: result.Action,
			Prompt: result.Prompt,
		})
		return
	}

	rem := result.Fields.ToReminder(now, req.UserID, func(name string) (string, bool) {
		for _, u := range users {
			if u.Name == name {
				return u.ID, true
			}
		}
		return "", false
	})
	if err := s.db.CreateReminder(&rem); err != nil {
		s.log.Error().Err(err).Str("title", rem.Title).Msg("failed to create parsed reminder")
		writeError(w, http.StatusInternalServerError, "failed to create reminder")
		return
	}

	s.log.Info().
		Str("reminder_id", rem.ID).
		Str("user_id", rem.UserID).
		Str("title", rem.Title).
		Msg("reminder created from natural language")

	writeJSON(w, http.StatusCreated, AssistParseResponse{
		Action:   result.Action,
		Reminder: rem,
	})
}

// handleAuditExport streams the alarm history as a spreadsheet.
// GET /api/audit/export
func (s *Server) handleAuditExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("audit_export")

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.trail == nil {
		writeError(w, http.StatusServiceUnavailable, "audit trail is not configured")
		return
	}

	filename := fmt.Sprintf("alarm-history-%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := audit.WriteExcel(w, s.trail.Entries()); err != nil {
		s.log.Error().Err(err).Msg("failed to export alarm history")
	}
}
