package assist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domovoy/internal/models"
)

func TestDecodeResult(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
		check   func(t *testing.T, r *ParseResult)
	}{
		{
			name: "create reminder",
			content: `{"action":"create_reminder","fields":{
				"user_name":"Grandma","title":"Take pills","date":"2026-06-02",
				"time":"08:00","recurrence":"daily","type":"medication"}}`,
			check: func(t *testing.T, r *ParseResult) {
				assert.Equal(t, ActionCreateReminder, r.Action)
				assert.Equal(t, "Take pills", r.Fields.Title)
				assert.Equal(t, "daily", r.Fields.Recurrence)
			},
		},
		{
			name:    "clarify",
			content: `{"action":"clarify","prompt":"What time should I remind you?"}`,
			check: func(t *testing.T, r *ParseResult) {
				assert.Equal(t, ActionClarify, r.Action)
				assert.Equal(t, "What time should I remind you?", r.Prompt)
			},
		},
		{
			name:    "clarify without prompt gets a fallback",
			content: `{"action":"clarify"}`,
			check: func(t *testing.T, r *ParseResult) {
				assert.NotEmpty(t, r.Prompt)
			},
		},
		{
			name:    "missing time rejected",
			content: `{"action":"create_reminder","fields":{"title":"Take pills"}}`,
			wantErr: true,
		},
		{
			name:    "unknown action rejected",
			content: `{"action":"delete_everything"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			content: `sure, I'll remind you!`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := decodeResult(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, result)
		})
	}
}

func TestToReminderDefaults(t *testing.T) {
	refDate := time.Date(2026, 6, 1, 14, 0, 0, 0, time.Local)
	resolve := func(name string) (string, bool) {
		if name == "Grandma" {
			return "u-grandma", true
		}
		return "", false
	}

	t.Run("missing date defaults to today", func(t *testing.T) {
		f := ReminderFields{Title: "Take pills", Time: "08:00"}
		r := f.ToReminder(refDate, "u-speaker", resolve)
		assert.Equal(t, "2026-06-01", r.Date)
		assert.Equal(t, models.RecurrenceNone, r.Recurrence)
		assert.Equal(t, models.TypeGeneral, r.Type)
		assert.Equal(t, "u-speaker", r.UserID)
	})

	t.Run("named member resolves", func(t *testing.T) {
		f := ReminderFields{UserName: "Grandma", Title: "Take pills", Time: "08:00", Type: "medication"}
		r := f.ToReminder(refDate, "u-speaker", resolve)
		assert.Equal(t, "u-grandma", r.UserID)
		assert.Equal(t, models.TypeMedication, r.Type)
	})

	t.Run("unknown member falls back to speaker", func(t *testing.T) {
		f := ReminderFields{UserName: "Stranger", Title: "Call", Time: "10:00"}
		r := f.ToReminder(refDate, "u-speaker", resolve)
		assert.Equal(t, "u-speaker", r.UserID)
	})

	t.Run("invalid recurrence normalized to none", func(t *testing.T) {
		f := ReminderFields{Title: "Stretch", Time: "07:30", Recurrence: "hourly"}
		r := f.ToReminder(refDate, "u-speaker", nil)
		assert.Equal(t, models.RecurrenceNone, r.Recurrence)
	})
}

func TestCacheKeyNormalization(t *testing.T) {
	refDate := time.Date(2026, 6, 1, 0, 0, 0, 0, time.Local)

	a := cacheKey("Remind me  to stretch", "Dad", refDate)
	b := cacheKey("remind me to STRETCH", "Dad", refDate)
	assert.Equal(t, a, b, "whitespace and case must not change the key")

	c := cacheKey("remind me to stretch", "Mom", refDate)
	assert.NotEqual(t, a, c, "speaker is part of the key")

	d := cacheKey("remind me to stretch", "Dad", refDate.AddDate(0, 0, 1))
	assert.NotEqual(t, a, d, "reference date is part of the key")
}

func TestNewCacheDisabled(t *testing.T) {
	assert.Nil(t, NewCache(nil, time.Minute))
}
