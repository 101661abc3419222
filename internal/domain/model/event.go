// Package model contains domain models passed between layers.
package model

import "time"

// State is the lifecycle state of the event handler.
type State int

const (
	// StateIdle means no event is in flight and detections may trigger one.
	StateIdle State = iota
	// StateTriggered means an event is in flight; detections are ignored until capture.
	StateTriggered
)

// String returns the lower-case name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTriggered:
		return "triggered"
	default:
		return "unknown"
	}
}

// Event is a single trigger of the sprayer, from detection to clip capture.
type Event struct {
	ID           string    // unique id; actions are deduplicated on it
	StartedAt    time.Time // trigger tick start (carries the monotonic reading)
	CaptureDelay int       // ticks between trigger and capture dispatch
	Rate         int       // rounded effective rate at trigger time
}

// EventRecord is the persisted form of an Event.
type EventRecord struct {
	EventID      string
	StartedAt    time.Time
	Rate         int
	CaptureDelay int
}

// Record converts the event into its persisted form.
func (e Event) Record() EventRecord {
	return EventRecord{
		EventID:      e.ID,
		StartedAt:    e.StartedAt.Round(0),
		Rate:         e.Rate,
		CaptureDelay: e.CaptureDelay,
	}
}

// DailyCount is the number of events recorded on one calendar day.
type DailyCount struct {
	Day   string // YYYY-MM-DD in local time
	Count int
}
