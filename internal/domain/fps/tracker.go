// Package fps tracks the effective sampling rate of the control loop.
package fps

import (
	"math"
	"time"

	"github.com/okian/spraycam/internal/domain/window"
)

// Tracker smooths instantaneous rates (1/delta between consecutive tick
// starts) over a fixed number of samples. Its own window size is derived once
// from the initial estimate and is never resized.
type Tracker struct {
	initial float64
	samples *window.Window[float64]
	last    time.Time
	seen    bool
}

// New returns a tracker holding CapacityFor(initial, windowSeconds) samples.
// Until the first sample exists Current reports initial.
func New(initial, windowSeconds float64) *Tracker {
	return &Tracker{
		initial: initial,
		samples: window.New[float64](window.CapacityFor(initial, windowSeconds)),
	}
}

// Observe registers the start of a successful tick. Times must come from
// time.Now so deltas use the monotonic clock.
func (t *Tracker) Observe(start time.Time) {
	if !t.seen {
		t.last = start
		t.seen = true
		return
	}
	delta := start.Sub(t.last)
	t.last = start
	if delta <= 0 {
		return
	}
	t.samples.Push(1 / delta.Seconds())
}

// Current returns the mean of the recorded samples.
func (t *Tracker) Current() float64 {
	if t.samples.Len() == 0 {
		return t.initial
	}
	return window.Mean(t.samples)
}

// Rounded returns Current rounded to the nearest integer.
func (t *Tracker) Rounded() int {
	return int(math.Round(t.Current()))
}

// Samples returns the number of samples held.
func (t *Tracker) Samples() int { return t.samples.Len() }

// Size returns the smoothing window size.
func (t *Tracker) Size() int { return t.samples.Capacity() }

// Changed reports whether the rounded rate differs from the one last applied.
func Changed(prev, cur int) bool { return prev != cur }
