package worker

import (
	"time"

	"github.com/okian/spraycam/pkg/logger"
)

// Option configures a worker, or every worker of a Pool.
type Option func(*InMemoryWorker)

// WithName names the worker in logs.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets the worker logger.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithPublishTimeout bounds each publish call so a stalled broker cannot hold
// up the event log.
func WithPublishTimeout(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d > 0 {
			w.publishTimeout = d
		}
	}
}

// WithDrainTimeout bounds how long Pool.Shutdown waits for queued records.
func WithDrainTimeout(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d > 0 {
			w.drainTimeout = d
		}
	}
}
