// Package events provides in-process pub/sub between the alarm engine and
// its consumers (notifier, audit trail, agenda views).
package events

import (
	"sync"
	"time"

	"domovoy/internal/models"
)

// Event types published by the engine.
const (
	AlarmRaised  = "alarm.raised"
	AlarmCleared = "alarm.cleared"
	DayRollover  = "day.rollover"
)

// Reasons an alarm leaves the active set.
const (
	ReasonCompleted  = "completed"
	ReasonSnoozed    = "snoozed"
	ReasonAutoSnooze = "auto_snooze"
	ReasonDismissed  = "dismissed" // reminder deleted or completed outside the alarm flow
)

// Event is a single engine occurrence.
type Event struct {
	Type string
	At   time.Time

	// Set for alarm.* events.
	Reminder models.Reminder
	Owner    models.User
	Reason   string

	// Set for day.rollover: the calendar day that ended and the one that
	// began, both YYYY-MM-DD.
	PreviousDay string
	CurrentDay  string
}

// Handler reacts to an event. Handlers run synchronously on the
// publisher's goroutine; a handler doing I/O must hand off to its own.
type Handler func(Event)

// Bus fans events out to subscribers by type.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.At.IsZero() {
		event.At = time.Now()
	}

	for _, handler := range handlers {
		handler(event)
	}
}
