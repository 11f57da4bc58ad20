package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReminderNormalize(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.Local)

	tests := []struct {
		name string
		in   Reminder
		want Reminder
	}{
		{
			name: "absent date becomes today",
			in:   Reminder{Time: "08:00", Recurrence: RecurrenceDaily, Type: TypeMedication},
			want: Reminder{Date: "2026-03-14", Time: "08:00", Recurrence: RecurrenceDaily, Type: TypeMedication},
		},
		{
			name: "garbage recurrence becomes none",
			in:   Reminder{Date: "2026-04-01", Time: "12:00", Recurrence: "fortnightly", Type: TypeActivity},
			want: Reminder{Date: "2026-04-01", Time: "12:00", Recurrence: RecurrenceNone, Type: TypeActivity},
		},
		{
			name: "unknown type becomes general",
			in:   Reminder{Date: "2026-04-01", Time: "12:00", Recurrence: RecurrenceNone, Type: "chore"},
			want: Reminder{Date: "2026-04-01", Time: "12:00", Recurrence: RecurrenceNone, Type: TypeGeneral},
		},
		{
			name: "unparseable time becomes current minute",
			in:   Reminder{Date: "2026-04-01", Time: "25:99", Recurrence: RecurrenceNone, Type: TypeGeneral},
			want: Reminder{Date: "2026-04-01", Time: "09:30", Recurrence: RecurrenceNone, Type: TypeGeneral},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.in
			r.Normalize(now)
			assert.Equal(t, tt.want.Date, r.Date)
			assert.Equal(t, tt.want.Time, r.Time)
			assert.Equal(t, tt.want.Recurrence, r.Recurrence)
			assert.Equal(t, tt.want.Type, r.Type)
			assert.Equal(t, now, r.CreatedAt)
		})
	}
}

func TestScheduledAt(t *testing.T) {
	r := Reminder{Date: "2026-01-31", Time: "08:00"}
	got := r.ScheduledAt()
	assert.Equal(t, time.Date(2026, 1, 31, 8, 0, 0, 0, time.Local), got)

	bad := Reminder{Date: "not-a-date", Time: "08:00"}
	assert.True(t, bad.ScheduledAt().IsZero())
}

func TestIsRecurring(t *testing.T) {
	assert.False(t, (&Reminder{Recurrence: RecurrenceNone}).IsRecurring())
	assert.False(t, (&Reminder{}).IsRecurring())
	assert.True(t, (&Reminder{Recurrence: RecurrenceWeekly}).IsRecurring())
}
