// Package types contains common types used across the application
package types

import (
	"time"

	"github.com/okian/spraycam/internal/domain/model"
)

// Status is the snapshot of the control loop exposed on /status.
type Status struct {
	State           string  `json:"state"`
	EffectiveRate   float64 `json:"effective_rate"`
	AppliedRate     int     `json:"applied_rate"`
	DetectionRatio  float64 `json:"detection_ratio"`
	DetectionWindow int     `json:"detection_window"`
	FrameWindow     int     `json:"frame_window"`
	Countdown       int     `json:"countdown"`
	EventID         string  `json:"event_id,omitempty"`
	ActuatorActive  bool    `json:"actuator_active"`
	ResizePending   bool    `json:"resize_pending"`
	FramesProcessed uint64  `json:"frames_processed"`
	FramesSkipped   uint64  `json:"frames_skipped"`
	EventsTriggered uint64  `json:"events_triggered"`
	Message         string  `json:"message,omitempty"`
}

// EventEntry is a recorded event as returned by /events.
type EventEntry struct {
	EventID      string `json:"event_id"`
	StartedAt    string `json:"started_at"`
	Rate         int    `json:"rate"`
	CaptureDelay int    `json:"capture_delay"`
}

// DailyEntry is one day of /events/daily.
type DailyEntry struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// NewEventEntry converts a stored record to its wire form.
func NewEventEntry(rec model.EventRecord) EventEntry {
	return EventEntry{
		EventID:      rec.EventID,
		StartedAt:    rec.StartedAt.Format(time.RFC3339Nano),
		Rate:         rec.Rate,
		CaptureDelay: rec.CaptureDelay,
	}
}

// NewDailyEntries converts day counts to their wire form.
func NewDailyEntries(days []model.DailyCount) []DailyEntry {
	out := make([]DailyEntry, 0, len(days))
	for _, d := range days {
		out = append(out, DailyEntry{Day: d.Day, Count: d.Count})
	}
	return out
}
