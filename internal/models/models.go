// Package models holds the household domain types shared by the storage,
// engine and API layers.
package models

import "time"

// DateLayout and TimeLayout are the wire formats for reminder schedules.
// Dates and times are stored as strings so they stay timezone-free: a
// reminder at 08:00 means 08:00 on the wall clock of the household.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Recurrence describes how a reminder repeats after it completes.
type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceYearly  Recurrence = "yearly"
)

// Valid reports whether the value is one of the known recurrence kinds.
func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	}
	return false
}

// ReminderType is a coarse category used for display and filtering.
type ReminderType string

const (
	TypeMedication ReminderType = "medication"
	TypeActivity   ReminderType = "activity"
	TypeGeneral    ReminderType = "general"
)

// Valid reports whether the value is one of the known reminder types.
func (t ReminderType) Valid() bool {
	switch t {
	case TypeMedication, TypeActivity, TypeGeneral:
		return true
	}
	return false
}

// User is a household member reminders are assigned to.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar,omitempty"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Reminder is a single scheduled item. Date and Time are strings in
// DateLayout/TimeLayout; LastTriggeredAt and SnoozeUntil are engine
// bookkeeping and nil until the reminder first fires or is snoozed.
type Reminder struct {
	ID              string       `json:"id"`
	UserID          string       `json:"user_id"`
	Title           string       `json:"title"`
	Date            string       `json:"date"`
	Time            string       `json:"time"`
	Recurrence      Recurrence   `json:"recurrence"`
	Type            ReminderType `json:"type"`
	IsCompleted     bool         `json:"is_completed"`
	LastTriggeredAt *time.Time   `json:"last_triggered_at,omitempty"`
	SnoozeUntil     *time.Time   `json:"snooze_until,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// IsRecurring reports whether completing the reminder should spawn a
// follow-up occurrence.
func (r *Reminder) IsRecurring() bool {
	return r.Recurrence != "" && r.Recurrence != RecurrenceNone
}

// ScheduledAt combines Date and Time into a local wall-clock instant.
// Returns the zero time when either field is unparseable.
func (r *Reminder) ScheduledAt() time.Time {
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, r.Date+" "+r.Time, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Normalize repairs fields that arrived absent or malformed, so that the
// rest of the system can rely on well-formed records: a missing or bad
// date becomes today, a bad time the current minute, and unknown enum
// values fall back to their defaults.
func (r *Reminder) Normalize(now time.Time) {
	if _, err := time.ParseInLocation(DateLayout, r.Date, time.Local); err != nil {
		r.Date = now.Format(DateLayout)
	}
	if _, err := time.ParseInLocation(TimeLayout, r.Time, time.Local); err != nil {
		r.Time = now.Format(TimeLayout)
	}
	if !r.Recurrence.Valid() {
		r.Recurrence = RecurrenceNone
	}
	if !r.Type.Valid() {
		r.Type = TypeGeneral
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
}
