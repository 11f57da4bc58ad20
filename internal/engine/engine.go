// Package engine is the reminder scheduling and alarm-triggering core.
// A one-second tick driver scans the store for due reminders, promotes
// them into the active alarm set and owns every state transition out of
// it (complete, snooze, auto-snooze). All mutations are serialized behind
// a single mutex: the tick driver and user-initiated operations are
// logically concurrent producers over shared state.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"domovoy/internal/events"
	"domovoy/internal/metrics"
	"domovoy/internal/models"
	"domovoy/internal/store"
)

// Config holds engine timings. Zero values select the defaults.
type Config struct {
	// TickInterval is the evaluation cadence.
	TickInterval time.Duration
	// FailsafeDelay is how long an alarm may ring unattended before the
	// auto-snooze failsafe fires.
	FailsafeDelay time.Duration
	// FailsafeSnooze is the snooze applied by the failsafe.
	FailsafeSnooze time.Duration
}

// DefaultConfig returns the product timings: 1s ticks, a 3 minute
// unattended-alarm failsafe snoozing everything for 5 minutes.
func DefaultConfig() Config {
	return Config{
		TickInterval:   time.Second,
		FailsafeDelay:  3 * time.Minute,
		FailsafeSnooze: 5 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	if c.FailsafeDelay <= 0 {
		c.FailsafeDelay = d.FailsafeDelay
	}
	if c.FailsafeSnooze <= 0 {
		c.FailsafeSnooze = d.FailsafeSnooze
	}
	return c
}

// Engine drives the alarm state machine.
type Engine struct {
	store  store.Store
	bus    *events.Bus
	cfg    Config
	logger *zerolog.Logger
	clock  func() time.Time

	mu          sync.Mutex
	active      map[string]struct{}
	order       []string // active ids in firing order
	lastDay     string
	failsafe    *time.Timer
	failsafeGen uint64 // invalidates timers that fired before a cancel landed
	running     bool
	stopCh      chan struct{} // recreated on every Start
}

// New creates an engine over the given store and event bus.
func New(st store.Store, bus *events.Bus, cfg Config, logger *zerolog.Logger) *Engine {
	return &Engine{
		store:  st,
		bus:    bus,
		cfg:    cfg.withDefaults(),
		logger: logger,
		clock:  time.Now,
		active: make(map[string]struct{}),
	}
}

// Start begins the tick loop. It blocks until the context is cancelled or
// Stop is called. A stopped engine can be started again.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stopCh = make(chan struct{})
	stopCh := e.stopCh
	e.mu.Unlock()

	e.logger.Info().Dur("tick", e.cfg.TickInterval).Msg("alarm engine started")

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.shutdown("context cancelled")
			return
		case <-stopCh:
			e.shutdown("stop requested")
			return
		case <-ticker.C:
			e.Tick(e.clock())
		}
	}
}

// Stop stops the tick loop.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.running {
		e.running = false
		close(e.stopCh)
	}
	e.mu.Unlock()
}

func (e *Engine) shutdown(reason string) {
	e.mu.Lock()
	e.running = false
	e.cancelFailsafeLocked()
	e.mu.Unlock()
	e.logger.Info().Str("reason", reason).Msg("alarm engine stopped")
}

// Tick runs one evaluation pass against a single "now" snapshot: the
// wall-clock date and minute are captured once, so every reminder in the
// pass sees the same instant regardless of collection size. Exported so
// tests and the loop share the exact same path.
func (e *Engine) Tick(now time.Time) {
	metrics.IncTick()

	today := now.Format(models.DateLayout)
	minute := now.Format(models.TimeLayout)

	e.mu.Lock()
	var pending []events.Event

	if e.lastDay != "" && e.lastDay != today {
		e.logger.Info().Str("previous", e.lastDay).Str("current", today).Msg("day rollover")
		pending = append(pending, events.Event{
			Type:        events.DayRollover,
			At:          now,
			PreviousDay: e.lastDay,
			CurrentDay:  today,
		})
	}
	e.lastDay = today

	// Alarms whose reminder disappeared or was completed through direct
	// CRUD no longer satisfy the membership invariant; drop them.
	for _, id := range append([]string(nil), e.order...) {
		r, err := e.store.ReminderByID(id)
		if err != nil || r.IsCompleted {
			pending = append(pending, e.removeLocked(id, r, events.ReasonDismissed)...)
		}
	}

	for _, r := range e.store.Reminders() {
		if IsDue(r, today, minute, now) {
			pending = append(pending, e.fireLocked(r, now)...)
		}
	}
	e.mu.Unlock()

	e.publish(pending)
}

func (e *Engine) publish(pending []events.Event) {
	for _, ev := range pending {
		e.bus.Publish(ev)
	}
}
