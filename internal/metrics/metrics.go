package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ticksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "domovoy",
			Name:      "engine_ticks_total",
			Help:      "Count of engine evaluation ticks.",
		},
	)

	alarmsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "domovoy",
			Name:      "alarms_active",
			Help:      "Number of reminders currently ringing.",
		},
	)

	alarmsRaised = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "domovoy",
			Name:      "alarms_raised_total",
			Help:      "Count of reminders promoted into the active alarm set.",
		},
	)

	completions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "domovoy",
			Name:      "completions_total",
			Help:      "Count of reminders completed.",
		},
	)

	snoozes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "domovoy",
			Name:      "snoozes_total",
			Help:      "Count of snooze operations by kind.",
		},
		[]string{"kind"}, // manual, bulk, auto
	)

	parses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "domovoy",
			Name:      "assist_parse_total",
			Help:      "Count of assist parse requests by result.",
		},
		[]string{"result"}, // create_reminder, clarify, cached, error
	)

	notifies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "domovoy",
			Name:      "notify_total",
			Help:      "Count of notification deliveries by status.",
		},
		[]string{"status"}, // sent, failed, dropped
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "domovoy",
			Name:      "http_requests_total",
			Help:      "Count of API requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ticksTotal, alarmsActive, alarmsRaised, completions,
			snoozes, parses, notifies, httpRequests,
		)
	})
}

func IncTick()                { ticksTotal.Inc() }
func SetAlarmsActive(n int)   { alarmsActive.Set(float64(n)) }
func IncAlarmRaised()         { alarmsRaised.Inc() }
func IncCompletion()          { completions.Inc() }
func IncSnooze(kind string)   { snoozes.WithLabelValues(kind).Inc() }
func IncParse(result string)  { parses.WithLabelValues(result).Inc() }
func IncNotify(status string) { notifies.WithLabelValues(status).Inc() }
func IncHTTP(endpoint string) { httpRequests.WithLabelValues(endpoint).Inc() }
