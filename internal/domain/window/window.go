// Package window implements the fixed-capacity sliding windows the control
// loop keeps its evidence in.
package window

import "math"

// Window is a FIFO ring of the most recent values. The oldest value is
// evicted when a push would exceed capacity. A Window is not safe for
// concurrent use; the control loop owns it.
type Window[T any] struct {
	buf  []T
	head int // index of the oldest element
	size int
}

// New returns an empty window holding at most capacity values.
// Capacity is clamped to 1.
func New[T any](capacity int) *Window[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Window[T]{buf: make([]T, capacity)}
}

// Push appends v, evicting the oldest value when the window is full.
func (w *Window[T]) Push(v T) {
	c := len(w.buf)
	if w.size < c {
		w.buf[(w.head+w.size)%c] = v
		w.size++
		return
	}
	w.buf[w.head] = v
	w.head = (w.head + 1) % c
}

// Resize changes the capacity to n (clamped to 1). Shrinking drops the
// oldest len-n values; growing keeps every value and does not pad.
func (w *Window[T]) Resize(n int) {
	if n < 1 {
		n = 1
	}
	if n == len(w.buf) {
		return
	}
	keep := min(w.size, n)
	buf := make([]T, n)
	c := len(w.buf)
	start := w.head + (w.size - keep)
	for i := range keep {
		buf[i] = w.buf[(start+i)%c]
	}
	w.buf = buf
	w.head = 0
	w.size = keep
}

// Snapshot returns a copy of the values, oldest first.
func (w *Window[T]) Snapshot() []T {
	out := make([]T, w.size)
	c := len(w.buf)
	for i := range w.size {
		out[i] = w.buf[(w.head+i)%c]
	}
	return out
}

// Len returns the number of values held.
func (w *Window[T]) Len() int { return w.size }

// Capacity returns the maximum number of values held.
func (w *Window[T]) Capacity() int { return len(w.buf) }

// Full reports whether Len equals Capacity.
func (w *Window[T]) Full() bool { return w.size == len(w.buf) }

// Reset drops every value and keeps the capacity.
func (w *Window[T]) Reset() {
	clear(w.buf)
	w.head = 0
	w.size = 0
}

// RatioTrue returns the number of true values divided by the capacity,
// not by the current length.
func RatioTrue(w *Window[bool]) float64 {
	n := 0
	c := len(w.buf)
	for i := range w.size {
		if w.buf[(w.head+i)%c] {
			n++
		}
	}
	return float64(n) / float64(c)
}

// Mean returns the arithmetic mean of the values, or 0 for an empty window.
func Mean(w *Window[float64]) float64 {
	if w.size == 0 {
		return 0
	}
	var sum float64
	c := len(w.buf)
	for i := range w.size {
		sum += w.buf[(w.head+i)%c]
	}
	return sum / float64(w.size)
}

// CapacityFor converts a duration in seconds into a window length at the
// given rate: max(1, round(rate*seconds)).
func CapacityFor(rate, seconds float64) int {
	n := int(math.Round(rate * seconds))
	if n < 1 {
		return 1
	}
	return n
}
