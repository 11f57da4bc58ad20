package engine

import (
	"time"

	"github.com/google/uuid"

	"domovoy/internal/models"
)

// NextOccurrence computes the follow-up reminder spawned when a recurring
// reminder is completed. Returns nil for non-recurring reminders and for
// reminders whose date does not parse.
//
// The next date is advanced from the completed reminder's own date, not
// from "now": completing a slot late must not shift or skip the series.
// Month and year steps clamp to the last day of the target month
// (Jan 31 +1 month lands on Feb 28/29, Feb 29 +1 year lands on Feb 28)
// instead of letting date normalization spill into the month after.
func NextOccurrence(r models.Reminder) *models.Reminder {
	if !r.IsRecurring() {
		return nil
	}

	date, err := time.ParseInLocation(models.DateLayout, r.Date, time.Local)
	if err != nil {
		return nil
	}

	var next time.Time
	switch r.Recurrence {
	case models.RecurrenceDaily:
		next = date.AddDate(0, 0, 1)
	case models.RecurrenceWeekly:
		next = date.AddDate(0, 0, 7)
	case models.RecurrenceMonthly:
		next = addMonthsClamped(date, 1)
	case models.RecurrenceYearly:
		next = addMonthsClamped(date, 12)
	default:
		return nil
	}

	out := r
	out.ID = uuid.NewString()
	out.Date = next.Format(models.DateLayout)
	out.IsCompleted = false
	out.LastTriggeredAt = nil
	out.SnoozeUntil = nil
	out.CreatedAt = time.Now()
	return &out
}

// addMonthsClamped advances t by n months keeping the day of month,
// clamped to the length of the target month.
func addMonthsClamped(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysInMonth(first); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
