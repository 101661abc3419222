// Package repository persists the event log.
package repository

import (
	"context"
	"time"

	"github.com/okian/spraycam/internal/domain/model"
)

// EventLog provides read/write access to recorded events.
type EventLog interface {
	// Record stores an event. Recording the same event id twice is a no-op.
	Record(ctx context.Context, rec model.EventRecord) error

	// Get returns a single event. Returns ErrNotFound if the id is unknown.
	Get(ctx context.Context, eventID string) (model.EventRecord, error)

	// Recent returns up to limit events, newest first.
	Recent(ctx context.Context, limit int) ([]model.EventRecord, error)

	// DailyCounts returns one entry per calendar day in [from, to], oldest
	// first, including days without events.
	DailyCounts(ctx context.Context, from, to time.Time) ([]model.DailyCount, error)

	// Count returns the number of recorded events.
	Count(ctx context.Context) (int, error)

	Close() error
}

// dayLayout is the calendar day key used for daily aggregation.
const dayLayout = "2006-01-02"

// FillDays expands sparse per-day counts into a dense series covering every
// day from from to to (inclusive) in loc. Days missing from counts get 0.
func FillDays(from, to time.Time, loc *time.Location, counts map[string]int) []model.DailyCount {
	start := truncateDay(from, loc)
	end := truncateDay(to, loc)
	if end.Before(start) {
		return nil
	}
	var out []model.DailyCount
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(dayLayout)
		out = append(out, model.DailyCount{Day: key, Count: counts[key]})
	}
	return out
}

func truncateDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DayRange returns the bounds of the last days calendar days ending on now's day.
func DayRange(now time.Time, days int) (from, to time.Time) {
	if days < 1 {
		days = 1
	}
	return now.AddDate(0, 0, -(days - 1)), now
}
