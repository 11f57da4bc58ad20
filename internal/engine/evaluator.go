package engine

import (
	"time"

	"domovoy/internal/models"
)

// RefireSuppression is the minimum gap between two firings of the same
// reminder on its scheduled minute. The scheduled-time check is
// minute-granular while the tick is one second, so without this window a
// single matching minute would raise the same alarm sixty times.
const RefireSuppression = 60 * time.Second

// IsDue decides whether a reminder should fire. today and minute are the
// wall-clock date (YYYY-MM-DD) and time (HH:MM) captured once per tick,
// now is the matching instant; passing them in keeps the predicate pure
// and every reminder in a tick evaluated against the same snapshot.
//
// A reminder fires when its scheduled date and minute match the snapshot
// and it has not fired within the suppression window, or when a pending
// snooze deadline has been reached. Completed reminders never fire.
func IsDue(r models.Reminder, today, minute string, now time.Time) bool {
	if r.IsCompleted {
		return false
	}

	if r.SnoozeUntil != nil && !now.Before(*r.SnoozeUntil) {
		return true
	}

	if r.Date == today && r.Time == minute {
		var last time.Time
		if r.LastTriggeredAt != nil {
			last = *r.LastTriggeredAt
		}
		return now.Sub(last) > RefireSuppression
	}

	return false
}
