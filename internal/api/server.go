// Package api exposes the household state over a JSON HTTP API. The
// browser client polls GET /api/alarms once a second and drives every
// mutation through the POST endpoints.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"domovoy/internal/assist"
	"domovoy/internal/audit"
	"domovoy/internal/engine"
	"domovoy/internal/store"
)

// Parser is the natural-language collaborator. Implemented by
// assist.Client; faked in tests.
type Parser interface {
	Parse(ctx context.Context, text, speaker string, members []string, refDate time.Time) (*assist.ParseResult, error)
}

// Server holds the handler dependencies.
type Server struct {
	db     store.Store
	engine *engine.Engine
	parser Parser
	trail  *audit.Trail
	log    zerolog.Logger
	mux    *http.ServeMux
}

// NewServer wires the routes. parser and trail may be nil; the matching
// endpoints then answer 503.
func NewServer(db store.Store, eng *engine.Engine, parser Parser, trail *audit.Trail, logger zerolog.Logger) *Server {
	s := &Server{
		db:     db,
		engine: eng,
		parser: parser,
		trail:  trail,
		log:    logger.With().Str("component", "api").Logger(),
		mux:    http.NewServeMux(),
	}

	s.mux.HandleFunc("/api/users", s.handleUsers)
	s.mux.HandleFunc("/api/users/", s.handleUserByID)
	s.mux.HandleFunc("/api/reminders", s.handleReminders)
	s.mux.HandleFunc("/api/reminders/uncomplete", s.handleUncomplete)
	s.mux.HandleFunc("/api/reminders/", s.handleReminderByID)
	s.mux.HandleFunc("/api/alarms", s.handleAlarms)
	s.mux.HandleFunc("/api/alarms/complete", s.handleCompleteAlarm)
	s.mux.HandleFunc("/api/alarms/snooze", s.handleSnoozeAlarms)
	s.mux.HandleFunc("/api/assist/parse", s.handleAssistParse)
	s.mux.HandleFunc("/api/audit/export", s.handleAuditExport)

	return s
}

// Handler returns the route multiplexer.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeBody parses a JSON request body, rejecting unknown fields.
func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

// pathID extracts the trailing id from paths like /api/users/{id}.
func pathID(path, prefix string) string {
	if len(path) <= len(prefix) || path[:len(prefix)] != prefix {
		return ""
	}
	return path[len(prefix):]
}
