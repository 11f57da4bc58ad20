package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domovoy/internal/assist"
	"domovoy/internal/audit"
	"domovoy/internal/engine"
	"domovoy/internal/events"
	"domovoy/internal/models"
	"domovoy/internal/store"
)

type fakeParser struct {
	result *assist.ParseResult
	err    error
}

func (f *fakeParser) Parse(context.Context, string, string, []string, time.Time) (*assist.ParseResult, error) {
	return f.result, f.err
}

type fixture struct {
	db     *store.JSONStore
	engine *engine.Engine
	parser *fakeParser
	trail  *audit.Trail
	srv    *Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zerolog.Nop()
	db, err := store.OpenJSON(filepath.Join(t.TempDir(), "household.json"), &logger)
	require.NoError(t, err)

	bus := events.NewBus()
	trail := audit.NewTrail(audit.DefaultConfig())
	trail.Attach(bus)

	eng := engine.New(db, bus, engine.DefaultConfig(), &logger)
	parser := &fakeParser{}

	return &fixture{
		db:     db,
		engine: eng,
		parser: parser,
		trail:  trail,
		srv:    NewServer(db, eng, parser, trail, logger),
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, req)
	return w
}

func decodeResponse[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestUsersCRUD(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/users", UserRequest{Name: "Grandma", Avatar: "👵"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeResponse[models.User](t, w)
	assert.NotEmpty(t, created.ID)

	w = f.do(t, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeResponse[map[string][]models.User](t, w)
	assert.Len(t, list["users"], 2) // seed member plus Grandma

	w = f.do(t, http.MethodPut, "/api/users/"+created.ID, UserRequest{Name: "Granny"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Granny", f.db.UserByID(created.ID).Name)

	w = f.do(t, http.MethodDelete, "/api/users/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Deleting the only remaining member is refused.
	last := f.db.Users()[0]
	w = f.do(t, http.MethodDelete, "/api/users/"+last.ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateUserValidation(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/users", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/users", "not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/users", map[string]string{"name": "x", "surprise": "y"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "unknown fields are rejected")
}

func TestRemindersCRUD(t *testing.T) {
	f := newFixture(t)
	owner := f.db.Users()[0]

	w := f.do(t, http.MethodPost, "/api/reminders", ReminderRequest{
		UserID: owner.ID,
		Title:  "Walk the dog",
		Date:   "2026-09-02",
		Time:   "18:30",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeResponse[models.Reminder](t, w)
	assert.Equal(t, models.RecurrenceNone, created.Recurrence, "missing recurrence defaults to none")
	assert.Equal(t, models.TypeGeneral, created.Type)

	w = f.do(t, http.MethodPut, "/api/reminders/"+created.ID, ReminderRequest{
		UserID:     owner.ID,
		Title:      "Walk the dog twice",
		Date:       "2026-09-02",
		Time:       "19:00",
		Recurrence: "daily",
	})
	require.Equal(t, http.StatusOK, w.Code)

	got, err := f.db.ReminderByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Walk the dog twice", got.Title)
	assert.Equal(t, models.RecurrenceDaily, got.Recurrence)

	w = f.do(t, http.MethodDelete, "/api/reminders/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, err = f.db.ReminderByID(created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReminderValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		body      ReminderRequest
		wantError string
	}{
		{"missing title", ReminderRequest{Time: "08:00"}, "title is required"},
		{"missing time", ReminderRequest{Title: "x"}, "time is required"},
		{"bad time", ReminderRequest{Title: "x", Time: "25:99"}, "invalid time format; expected HH:MM"},
		{"bad date", ReminderRequest{Title: "x", Time: "08:00", Date: "02-09-2026"}, "invalid date format; expected YYYY-MM-DD"},
		{"bad recurrence", ReminderRequest{Title: "x", Time: "08:00", Recurrence: "hourly"}, "invalid recurrence"},
		{"bad type", ReminderRequest{Title: "x", Time: "08:00", Type: "chore"}, "invalid type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/reminders", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeResponse[map[string]string](t, w)
			assert.Equal(t, tt.wantError, resp["error"])
		})
	}
}

func TestDeleteReminderSilencesItsAlarm(t *testing.T) {
	f := newFixture(t)
	owner := f.db.Users()[0]

	now := time.Now()
	rem := models.Reminder{
		UserID: owner.ID,
		Title:  "Pills",
		Date:   now.Format(models.DateLayout),
		Time:   now.Format(models.TimeLayout),
	}
	require.NoError(t, f.db.CreateReminder(&rem))
	f.engine.Tick(now)
	require.Len(t, f.engine.ActiveAlarms(), 1)

	w := f.do(t, http.MethodDelete, "/api/reminders/"+rem.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.engine.ActiveAlarms())
}

func TestAlarmLifecycleOverHTTP(t *testing.T) {
	f := newFixture(t)
	owner := f.db.Users()[0]

	now := time.Now()
	rem := models.Reminder{
		UserID: owner.ID,
		Title:  "Pills",
		Date:   now.Format(models.DateLayout),
		Time:   now.Format(models.TimeLayout),
	}
	require.NoError(t, f.db.CreateReminder(&rem))
	f.engine.Tick(now)

	w := f.do(t, http.MethodGet, "/api/alarms", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Pills")

	w = f.do(t, http.MethodPost, "/api/alarms/complete", map[string]string{"id": rem.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.engine.ActiveAlarms())

	got, err := f.db.ReminderByID(rem.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)

	w = f.do(t, http.MethodPost, "/api/reminders/uncomplete", map[string]string{"id": rem.ID})
	require.Equal(t, http.StatusOK, w.Code)
	got, err = f.db.ReminderByID(rem.ID)
	require.NoError(t, err)
	assert.False(t, got.IsCompleted)
}

func TestSnoozeAllOverHTTP(t *testing.T) {
	f := newFixture(t)
	owner := f.db.Users()[0]

	now := time.Now()
	for _, title := range []string{"a", "b"} {
		rem := models.Reminder{
			UserID: owner.ID,
			Title:  title,
			Date:   now.Format(models.DateLayout),
			Time:   now.Format(models.TimeLayout),
		}
		require.NoError(t, f.db.CreateReminder(&rem))
	}
	f.engine.Tick(now)
	require.Len(t, f.engine.ActiveAlarms(), 2)

	w := f.do(t, http.MethodPost, "/api/alarms/snooze", map[string]any{"minutes": 5})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.engine.ActiveAlarms())

	resp := decodeResponse[map[string]any](t, w)
	assert.Len(t, resp["snoozed"], 2)
}

func TestSnoozeUnknownAlarm(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/alarms/snooze", map[string]any{"id": "nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssistParseCreatesReminder(t *testing.T) {
	f := newFixture(t)
	owner := f.db.Users()[0]

	f.parser.result = &assist.ParseResult{
		Action: assist.ActionCreateReminder,
		Fields: assist.ReminderFields{
			Title:      "Take pills",
			Time:       "08:00",
			Recurrence: "daily",
			Type:       "medication",
		},
	}

	w := f.do(t, http.MethodPost, "/api/assist/parse", map[string]string{
		"text":    "remind me to take pills every morning at eight",
		"user_id": owner.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	reminders := f.db.Reminders()
	require.Len(t, reminders, 1)
	assert.Equal(t, "Take pills", reminders[0].Title)
	assert.Equal(t, owner.ID, reminders[0].UserID)
	assert.Equal(t, models.RecurrenceDaily, reminders[0].Recurrence)
}

func TestAssistParseClarify(t *testing.T) {
	f := newFixture(t)
	owner := f.db.Users()[0]

	f.parser.result = &assist.ParseResult{
		Action: assist.ActionClarify,
		Prompt: "What time should I remind you?",
	}

	w := f.do(t, http.MethodPost, "/api/assist/parse", map[string]string{
		"text":    "remind me about the pills",
		"user_id": owner.ID,
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse[AssistParseResponse](t, w)
	assert.Equal(t, assist.ActionClarify, resp.Action)
	assert.NotEmpty(t, resp.Prompt)
	assert.Empty(t, f.db.Reminders(), "clarify must not create a reminder")
}

func TestAuditExport(t *testing.T) {
	f := newFixture(t)
	owner := f.db.Users()[0]

	now := time.Now()
	rem := models.Reminder{
		UserID: owner.ID,
		Title:  "Pills",
		Date:   now.Format(models.DateLayout),
		Time:   now.Format(models.TimeLayout),
	}
	require.NoError(t, f.db.CreateReminder(&rem))
	f.engine.Tick(now)
	require.NotZero(t, f.trail.Len())

	w := f.do(t, http.MethodGet, "/api/audit/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	assert.NotZero(t, w.Body.Len())
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodDelete, "/api/users"},
		{http.MethodGet, "/api/alarms/complete"},
		{http.MethodPut, "/api/assist/parse"},
		{http.MethodPost, "/api/audit/export"},
	} {
		w := f.do(t, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, "%s %s", tc.method, tc.path)
	}
}
