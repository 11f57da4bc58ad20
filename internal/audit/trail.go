// Package audit keeps a household-visible history of alarm activity:
// when each alarm rang, who it was for, and how it was resolved.
package audit

import (
	"sync"
	"time"

	"domovoy/internal/events"
)

// Config bounds the trail.
type Config struct {
	// RetentionDays is how long entries are kept. Default: 31 days.
	RetentionDays int
	// MaxEntries caps the trail regardless of age. Default: 10000.
	MaxEntries int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{RetentionDays: 31, MaxEntries: 10000}
}

// Entry is one recorded alarm occurrence.
type Entry struct {
	At         time.Time `json:"at"`
	EventType  string    `json:"event_type"`
	Reason     string    `json:"reason,omitempty"`
	ReminderID string    `json:"reminder_id"`
	Title      string    `json:"title"`
	OwnerID    string    `json:"owner_id"`
	OwnerName  string    `json:"owner_name"`
	Date       string    `json:"date"`
	Time       string    `json:"time"`
}

// Trail is an in-memory, retention-bounded alarm history.
type Trail struct {
	mu      sync.RWMutex
	cfg     Config
	entries []Entry
}

// NewTrail creates an empty trail.
func NewTrail(cfg Config) *Trail {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = DefaultConfig().RetentionDays
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultConfig().MaxEntries
	}
	return &Trail{cfg: cfg}
}

// Attach subscribes the trail to alarm events on the bus.
func (t *Trail) Attach(bus *events.Bus) {
	bus.Subscribe(events.AlarmRaised, t.record)
	bus.Subscribe(events.AlarmCleared, t.record)
}

func (t *Trail) record(ev events.Event) {
	entry := Entry{
		At:         ev.At,
		EventType:  ev.Type,
		Reason:     ev.Reason,
		ReminderID: ev.Reminder.ID,
		Title:      ev.Reminder.Title,
		OwnerID:    ev.Owner.ID,
		OwnerName:  ev.Owner.Name,
		Date:       ev.Reminder.Date,
		Time:       ev.Reminder.Time,
	}
	if entry.At.IsZero() {
		entry.At = time.Now()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, entry)
	t.pruneLocked(entry.At)
}

// pruneLocked drops entries past retention and enforces the size cap.
func (t *Trail) pruneLocked(now time.Time) {
	cutoff := now.Add(-time.Duration(t.cfg.RetentionDays) * 24 * time.Hour)
	firstKept := 0
	for firstKept < len(t.entries) && t.entries[firstKept].At.Before(cutoff) {
		firstKept++
	}
	if over := len(t.entries) - firstKept - t.cfg.MaxEntries; over > 0 {
		firstKept += over
	}
	if firstKept > 0 {
		t.entries = append([]Entry(nil), t.entries[firstKept:]...)
	}
}

// Entries returns a copy of the trail, oldest first.
func (t *Trail) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Entry(nil), t.entries...)
}

// Len reports the number of recorded entries.
func (t *Trail) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
