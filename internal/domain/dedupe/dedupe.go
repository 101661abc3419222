// Package dedupe guards side effects so each one runs at most once per event.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records (event, action) keys to ensure at-most-once execution.
type Deduper interface {
	// SeenAndRecord atomically checks if the action already ran for the event
	// and records it if not. Returns true if it was already recorded.
	SeenAndRecord(ctx context.Context, eventID, action string) bool

	// Unrecord removes a key so the action may be retried, e.g. when the task
	// could not be started at all.
	Unrecord(ctx context.Context, eventID, action string)

	Size() int64
}

type key struct {
	event  string
	action string
}

// inMemoryDeduper keeps the most recent keys in insertion order and evicts
// the oldest once maxSize is reached. maxSize <= 0 means unbounded.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[key]struct{}
	order   []key // ring of keys in insertion order, used when bounded
	next    int
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[key]struct{})
	if d.maxSize > 0 {
		d.order = make([]key, 0, d.maxSize)
	}

	return d
}

// SeenAndRecord atomically checks and records the key.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, eventID, action string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	k := key{event: eventID, action: action}
	if _, ok := d.seen[k]; ok {
		return true
	}

	if d.maxSize > 0 {
		if len(d.order) < d.maxSize {
			d.order = append(d.order, k)
		} else {
			// overwrite the oldest slot; it may already be unrecorded
			if _, ok := d.seen[d.order[d.next]]; ok {
				delete(d.seen, d.order[d.next])
				d.size.Add(-1)
			}
			d.order[d.next] = k
			d.next = (d.next + 1) % d.maxSize
		}
	}

	d.seen[k] = struct{}{}
	d.size.Add(1)
	return false
}

// Unrecord removes the key. Its ring slot is reclaimed lazily on eviction.
func (d *inMemoryDeduper) Unrecord(_ context.Context, eventID, action string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	k := key{event: eventID, action: action}
	if _, ok := d.seen[k]; ok {
		delete(d.seen, k)
		d.size.Add(-1)
	}
}

// Size returns the current number of recorded keys.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
