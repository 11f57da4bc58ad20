package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domovoy/internal/models"
)

func newTestStore(t *testing.T) *JSONStore {
	t.Helper()
	logger := zerolog.Nop()
	s, err := OpenJSON(filepath.Join(t.TempDir(), "household.json"), &logger)
	require.NoError(t, err)
	return s
}

func TestOpenJSONSeedsDefaults(t *testing.T) {
	s := newTestStore(t)

	users := s.Users()
	require.Len(t, users, 1)
	assert.Equal(t, "Family", users[0].Name)
	assert.Empty(t, s.Reminders())
}

func TestOpenJSONCorruptFileFallsBackToSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "household.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	logger := zerolog.Nop()
	s, err := OpenJSON(path, &logger)
	require.NoError(t, err)
	assert.Len(t, s.Users(), 1)
}

func TestOpenJSONRepairsMalformedReminders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "household.json")
	blob := `{
		"version": 1,
		"users": [{"id": "u1", "name": "Grandma"}],
		"reminders": [
			{"user_id": "u1", "title": "Pills", "time": "08:00", "recurrence": "hourly"}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(blob), 0o600))

	logger := zerolog.Nop()
	s, err := OpenJSON(path, &logger)
	require.NoError(t, err)

	reminders := s.Reminders()
	require.Len(t, reminders, 1)
	r := reminders[0]
	assert.NotEmpty(t, r.ID, "missing id must be assigned")
	assert.Equal(t, time.Now().Format(models.DateLayout), r.Date, "absent date defaults to today")
	assert.Equal(t, models.RecurrenceNone, r.Recurrence, "unknown recurrence defaults to none")
	assert.Equal(t, models.TypeGeneral, r.Type)
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "household.json")
	logger := zerolog.Nop()

	s, err := OpenJSON(path, &logger)
	require.NoError(t, err)

	u := models.User{Name: "Dad", Avatar: "👨", Color: "#336699"}
	require.NoError(t, s.CreateUser(&u))

	r := models.Reminder{
		UserID:     u.ID,
		Title:      "Walk the dog",
		Date:       "2026-05-01",
		Time:       "18:30",
		Recurrence: models.RecurrenceDaily,
		Type:       models.TypeActivity,
	}
	require.NoError(t, s.CreateReminder(&r))

	// Reopen and verify everything survived.
	reopened, err := OpenJSON(path, &logger)
	require.NoError(t, err)

	got, err := reopened.ReminderByID(r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Walk the dog", got.Title)
	assert.Equal(t, models.RecurrenceDaily, got.Recurrence)
	assert.Equal(t, "Dad", reopened.UserByID(u.ID).Name)
}

func TestDeleteLastUserRejected(t *testing.T) {
	s := newTestStore(t)

	users := s.Users()
	require.Len(t, users, 1)
	assert.ErrorIs(t, s.DeleteUser(users[0].ID), ErrLastUser)

	// With a second member the first becomes deletable.
	u := models.User{Name: "Mom"}
	require.NoError(t, s.CreateUser(&u))
	assert.NoError(t, s.DeleteUser(users[0].ID))
	assert.ErrorIs(t, s.DeleteUser(u.ID), ErrLastUser)
}

func TestOrphanedOwnerLookup(t *testing.T) {
	s := newTestStore(t)

	u := models.User{Name: "Kid", Avatar: "🧒"}
	require.NoError(t, s.CreateUser(&u))

	r := models.Reminder{UserID: u.ID, Title: "Homework", Date: "2026-05-01", Time: "16:00"}
	require.NoError(t, s.CreateReminder(&r))

	require.NoError(t, s.DeleteUser(u.ID))

	// The reminder survives the owner.
	got, err := s.ReminderByID(r.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.UserID)

	owner := s.UserByID(u.ID)
	assert.Equal(t, u.ID, owner.ID)
	assert.Equal(t, "Unknown member", owner.Name)
}

func TestUpdateMissingReminder(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateReminder(models.Reminder{ID: "nope"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemindersSortedBySchedule(t *testing.T) {
	s := newTestStore(t)

	for _, r := range []models.Reminder{
		{Title: "b", Date: "2026-05-02", Time: "08:00"},
		{Title: "a", Date: "2026-05-01", Time: "22:00"},
		{Title: "c", Date: "2026-05-02", Time: "07:00"},
	} {
		rr := r
		require.NoError(t, s.CreateReminder(&rr))
	}

	got := s.Reminders()
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Title)
	assert.Equal(t, "c", got[1].Title)
	assert.Equal(t, "b", got[2].Title)
}
