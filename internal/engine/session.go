package engine

import (
	"time"

	"domovoy/internal/events"
	"domovoy/internal/metrics"
	"domovoy/internal/models"
)

// ActiveAlarms returns the reminders currently ringing, in firing order.
func (e *Engine) ActiveAlarms() []models.Reminder {
	e.mu.Lock()
	ids := append([]string(nil), e.order...)
	e.mu.Unlock()

	alarms := make([]models.Reminder, 0, len(ids))
	for _, id := range ids {
		if r, err := e.store.ReminderByID(id); err == nil {
			alarms = append(alarms, r)
		}
	}
	return alarms
}

// Complete resolves a ringing (or dormant) reminder. Completing an
// already-completed reminder is a no-op for the flag and the recurrence
// spawn but still clears it from the active set, so a duplicate button
// press cannot double-spawn the next occurrence.
func (e *Engine) Complete(id string) error {
	e.mu.Lock()
	var pending []events.Event

	r, err := e.store.ReminderByID(id)
	if err != nil {
		// Unknown id: nothing to complete, but a stale entry in the
		// active set must still go away.
		pending = e.removeLocked(id, models.Reminder{}, events.ReasonDismissed)
		e.mu.Unlock()
		e.publish(pending)
		return err
	}

	if !r.IsCompleted {
		r.IsCompleted = true
		if err := e.store.UpdateReminder(r); err != nil {
			e.mu.Unlock()
			return err
		}
		metrics.IncCompletion()

		if next := NextOccurrence(r); next != nil {
			if err := e.store.CreateReminder(next); err != nil {
				e.logger.Error().Err(err).Str("reminder_id", r.ID).Msg("failed to spawn next occurrence")
			} else {
				e.logger.Info().
					Str("reminder_id", r.ID).
					Str("next_id", next.ID).
					Str("next_date", next.Date).
					Msg("recurring reminder rescheduled")
			}
		}
	}

	pending = e.removeLocked(id, r, events.ReasonCompleted)
	e.mu.Unlock()

	e.publish(pending)
	return nil
}

// Uncomplete reverses a completion. It never retracts an already-spawned
// next occurrence; reversal is about the flag only.
func (e *Engine) Uncomplete(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, err := e.store.ReminderByID(id)
	if err != nil {
		return err
	}
	if !r.IsCompleted {
		return nil
	}
	r.IsCompleted = false
	return e.store.UpdateReminder(r)
}

// Snooze silences one reminder for the given duration and removes it from
// the active set. It re-fires on the first tick at or after the deadline.
func (e *Engine) Snooze(id string, d time.Duration) error {
	now := e.clock()

	e.mu.Lock()
	r, err := e.store.ReminderByID(id)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	until := now.Add(d)
	r.SnoozeUntil = &until
	if err := e.store.UpdateReminder(r); err != nil {
		e.mu.Unlock()
		return err
	}
	metrics.IncSnooze("manual")

	pending := e.removeLocked(id, r, events.ReasonSnoozed)
	e.mu.Unlock()

	e.publish(pending)
	return nil
}

// SnoozeAll snoozes every reminder currently in the active set. The
// membership is snapshotted under the lock at call time: a reminder that
// becomes due on a concurrent tick is not swept up.
func (e *Engine) SnoozeAll(d time.Duration) []string {
	affected, pending := e.snoozeAll(d, events.ReasonSnoozed)
	if len(affected) > 0 {
		metrics.IncSnooze("bulk")
	}
	e.publish(pending)
	return affected
}

func (e *Engine) snoozeAll(d time.Duration, reason string) ([]string, []events.Event) {
	now := e.clock()

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snoozeAllLocked(now, d, reason)
}

func (e *Engine) snoozeAllLocked(now time.Time, d time.Duration, reason string) ([]string, []events.Event) {
	snapshot := append([]string(nil), e.order...)
	var pending []events.Event
	affected := make([]string, 0, len(snapshot))

	for _, id := range snapshot {
		r, err := e.store.ReminderByID(id)
		if err != nil {
			pending = append(pending, e.removeLocked(id, models.Reminder{}, events.ReasonDismissed)...)
			continue
		}
		until := now.Add(d)
		r.SnoozeUntil = &until
		if err := e.store.UpdateReminder(r); err != nil {
			e.logger.Error().Err(err).Str("reminder_id", id).Msg("failed to snooze")
			continue
		}
		affected = append(affected, id)
		pending = append(pending, e.removeLocked(id, r, reason)...)
	}
	return affected, pending
}

// fireLocked transitions a reminder Dormant -> Active: stamps the trigger
// time, consumes any pending snooze and adds the id to the active set.
// Adding an id already present is a no-op, so however many ticks
// re-observe a due reminder it rings at most once. Callers hold e.mu and
// publish the returned events after unlocking.
func (e *Engine) fireLocked(r models.Reminder, now time.Time) []events.Event {
	triggered := now
	r.LastTriggeredAt = &triggered
	r.SnoozeUntil = nil
	if err := e.store.UpdateReminder(r); err != nil {
		e.logger.Error().Err(err).Str("reminder_id", r.ID).Msg("failed to stamp trigger time")
		return nil
	}

	if _, ok := e.active[r.ID]; ok {
		return nil
	}

	wasEmpty := len(e.order) == 0
	e.active[r.ID] = struct{}{}
	e.order = append(e.order, r.ID)
	metrics.IncAlarmRaised()
	metrics.SetAlarmsActive(len(e.order))

	e.logger.Info().
		Str("reminder_id", r.ID).
		Str("title", r.Title).
		Str("scheduled", r.Date+" "+r.Time).
		Msg("alarm raised")

	if wasEmpty {
		e.armFailsafeLocked()
	}

	return []events.Event{{
		Type:     events.AlarmRaised,
		At:       now,
		Reminder: r,
		Owner:    e.store.UserByID(r.UserID),
	}}
}

// removeLocked drops an id from the active set and cancels the failsafe
// when the set empties. No-op (and no event) if the id is not active.
func (e *Engine) removeLocked(id string, r models.Reminder, reason string) []events.Event {
	if _, ok := e.active[id]; !ok {
		return nil
	}
	delete(e.active, id)
	for i, activeID := range e.order {
		if activeID == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	metrics.SetAlarmsActive(len(e.order))

	if len(e.order) == 0 {
		e.cancelFailsafeLocked()
	}

	if r.ID == "" {
		r.ID = id
	}
	return []events.Event{{
		Type:     events.AlarmCleared,
		At:       e.clock(),
		Reminder: r,
		Owner:    e.store.UserByID(r.UserID),
		Reason:   reason,
	}}
}

// armFailsafeLocked starts the one-shot unattended-alarm countdown. It is
// armed only on the empty -> non-empty transition: one countdown covers
// whatever alarms are showing, not one per reminder.
func (e *Engine) armFailsafeLocked() {
	e.cancelFailsafeLocked()
	gen := e.failsafeGen
	e.failsafe = time.AfterFunc(e.cfg.FailsafeDelay, func() { e.autoSnooze(gen) })
}

// cancelFailsafeLocked stops a pending countdown so an emptied alarm set
// can never be hit by a stale auto-snooze later. Bumping the generation
// also invalidates a timer that already fired but has not taken the lock
// yet; Stop alone cannot cover that window.
func (e *Engine) cancelFailsafeLocked() {
	e.failsafeGen++
	if e.failsafe != nil {
		e.failsafe.Stop()
		e.failsafe = nil
	}
}

func (e *Engine) autoSnooze(gen uint64) {
	now := e.clock()

	e.mu.Lock()
	if gen != e.failsafeGen {
		e.mu.Unlock()
		return
	}
	affected, pending := e.snoozeAllLocked(now, e.cfg.FailsafeSnooze, events.ReasonAutoSnooze)
	e.mu.Unlock()

	if len(affected) > 0 {
		metrics.IncSnooze("auto")
		e.logger.Info().
			Int("count", len(affected)).
			Dur("snooze", e.cfg.FailsafeSnooze).
			Msg("unattended alarms auto-snoozed")
	}
	e.publish(pending)
}

// Dismiss removes a reminder from the active set without completing or
// snoozing it, used when a ringing reminder is deleted outright.
func (e *Engine) Dismiss(id string) {
	e.mu.Lock()
	pending := e.removeLocked(id, models.Reminder{}, events.ReasonDismissed)
	e.mu.Unlock()
	e.publish(pending)
}
