package audit

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"domovoy/internal/events"
	"domovoy/internal/models"
)

func alarmEvent(eventType, reason string, at time.Time) events.Event {
	return events.Event{
		Type:     eventType,
		At:       at,
		Reason:   reason,
		Reminder: models.Reminder{ID: "r1", Title: "Take pills", Date: "2026-06-01", Time: "08:00"},
		Owner:    models.User{ID: "u1", Name: "Grandma"},
	}
}

func TestTrailRecordsAlarmLifecycle(t *testing.T) {
	trail := NewTrail(DefaultConfig())
	bus := events.NewBus()
	trail.Attach(bus)

	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.Local)
	bus.Publish(alarmEvent(events.AlarmRaised, "", now))
	bus.Publish(alarmEvent(events.AlarmCleared, events.ReasonCompleted, now.Add(time.Minute)))

	entries := trail.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, events.AlarmRaised, entries[0].EventType)
	assert.Equal(t, events.AlarmCleared, entries[1].EventType)
	assert.Equal(t, events.ReasonCompleted, entries[1].Reason)
	assert.Equal(t, "Grandma", entries[0].OwnerName)
}

func TestTrailRetention(t *testing.T) {
	trail := NewTrail(Config{RetentionDays: 7, MaxEntries: 100})

	now := time.Date(2026, 6, 30, 12, 0, 0, 0, time.Local)
	trail.record(alarmEvent(events.AlarmRaised, "", now.AddDate(0, 0, -10)))
	trail.record(alarmEvent(events.AlarmRaised, "", now.AddDate(0, 0, -3)))
	trail.record(alarmEvent(events.AlarmRaised, "", now))

	entries := trail.Entries()
	require.Len(t, entries, 2, "entries older than retention are pruned")
	assert.Equal(t, now.AddDate(0, 0, -3), entries[0].At)
}

func TestTrailSizeCap(t *testing.T) {
	trail := NewTrail(Config{RetentionDays: 31, MaxEntries: 3})

	now := time.Now()
	for i := 0; i < 5; i++ {
		trail.record(alarmEvent(events.AlarmRaised, "", now.Add(time.Duration(i)*time.Second)))
	}

	assert.Equal(t, 3, trail.Len())
}

func TestWriteExcel(t *testing.T) {
	entries := []Entry{
		{
			At:        time.Date(2026, 6, 1, 8, 0, 0, 0, time.Local),
			EventType: events.AlarmRaised,
			OwnerName: "Grandma",
			Title:     "Take pills",
			Date:      "2026-06-01",
			Time:      "08:00",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteExcel(&buf, entries))

	file, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer file.Close()

	rows, err := file.GetRows(historySheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Time", rows[0][0])
	assert.Equal(t, "Take pills", rows[1][4])
}
