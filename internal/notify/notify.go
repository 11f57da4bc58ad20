// Package notify pushes alarm activity to the household's Telegram chat.
// Delivery runs on its own goroutine so slow or failing sends never hold
// up the alarm engine.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"domovoy/internal/events"
	"domovoy/internal/metrics"
)

// Sender delivers a single formatted message.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Config controls delivery pacing and retries.
type Config struct {
	// QueueSize bounds the in-flight event buffer. When the buffer is
	// full new events are dropped rather than blocking the publisher.
	QueueSize int
	// RetryDelays are waited between consecutive attempts; the number of
	// retries equals the number of delays.
	RetryDelays []time.Duration
	// Rate and Burst feed the token-bucket limiter. Telegram allows
	// roughly one message per second to a single chat.
	Rate  rate.Limit
	Burst int
}

// DefaultConfig returns delivery settings suitable for one family chat.
func DefaultConfig() Config {
	return Config{
		QueueSize:   64,
		RetryDelays: []time.Duration{1 * time.Second, 5 * time.Second, 30 * time.Second},
		Rate:        rate.Every(time.Second),
		Burst:       5,
	}
}

// Service relays engine events to a Sender.
type Service struct {
	sender  Sender
	cfg     Config
	limiter *rate.Limiter
	logger  zerolog.Logger
	queue   chan events.Event
}

// NewService creates a relay around the given sender.
func NewService(sender Sender, cfg Config, logger zerolog.Logger) *Service {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultConfig().Rate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultConfig().Burst
	}
	return &Service{
		sender:  sender,
		cfg:     cfg,
		limiter: rate.NewLimiter(cfg.Rate, cfg.Burst),
		logger:  logger.With().Str("component", "notify").Logger(),
		queue:   make(chan events.Event, cfg.QueueSize),
	}
}

// Attach subscribes the service to alarm events on the bus. Handlers only
// enqueue; they never block the publishing goroutine.
func (s *Service) Attach(bus *events.Bus) {
	bus.Subscribe(events.AlarmRaised, s.enqueue)
	bus.Subscribe(events.AlarmCleared, s.enqueue)
}

func (s *Service) enqueue(ev events.Event) {
	select {
	case s.queue <- ev:
	default:
		metrics.IncNotify("dropped")
		s.logger.Warn().
			Str("type", ev.Type).
			Str("reminder_id", ev.Reminder.ID).
			Msg("notification queue full, dropping event")
	}
}

// Run drains the queue until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.queue:
			s.deliver(ctx, ev)
		}
	}
}

func (s *Service) deliver(ctx context.Context, ev events.Event) {
	text := FormatEvent(ev)
	if text == "" {
		return
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return
	}

	var lastErr error
	for attempt := 0; attempt <= len(s.cfg.RetryDelays); attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(s.cfg.RetryDelays[attempt-1]):
			case <-ctx.Done():
				return
			}
		}

		if lastErr = s.sender.Send(ctx, text); lastErr == nil {
			metrics.IncNotify("sent")
			return
		}

		s.logger.Warn().
			Err(lastErr).
			Int("attempt", attempt+1).
			Str("reminder_id", ev.Reminder.ID).
			Msg("notification send failed")
	}

	metrics.IncNotify("failed")
	s.logger.Error().
		Err(lastErr).
		Str("reminder_id", ev.Reminder.ID).
		Msg("notification retries exhausted")
}

// FormatEvent renders an engine event as a chat message. Returns "" for
// event types the chat does not care about.
func FormatEvent(ev events.Event) string {
	owner := ev.Owner.Name
	if ev.Owner.Avatar != "" {
		owner = ev.Owner.Avatar + " " + owner
	}

	switch ev.Type {
	case events.AlarmRaised:
		return fmt.Sprintf("🔔 *%s*\n%s — %s %s",
			escapeMarkdown(ev.Reminder.Title), owner, ev.Reminder.Date, ev.Reminder.Time)
	case events.AlarmCleared:
		switch ev.Reason {
		case events.ReasonCompleted:
			return fmt.Sprintf("✅ *%s* — done (%s)", escapeMarkdown(ev.Reminder.Title), owner)
		case events.ReasonSnoozed:
			return fmt.Sprintf("💤 *%s* snoozed (%s)", escapeMarkdown(ev.Reminder.Title), owner)
		case events.ReasonAutoSnooze:
			return fmt.Sprintf("💤 *%s* snoozed automatically — nobody reacted", escapeMarkdown(ev.Reminder.Title))
		default:
			return ""
		}
	}
	return ""
}

func escapeMarkdown(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '*', '_', '`', '[':
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
