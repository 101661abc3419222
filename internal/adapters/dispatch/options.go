package dispatch

import (
	"github.com/okian/spraycam/internal/domain/dedupe"
	"github.com/okian/spraycam/internal/domain/model"
	"github.com/okian/spraycam/pkg/logger"
)

// Option applies a configuration option to the Dispatcher.
type Option func(*Dispatcher)

// WithActuator sets the actuator and the press sequence it runs.
func WithActuator(a Actuator, p model.SprayPattern) Option {
	return func(d *Dispatcher) {
		d.actuator = a
		d.pattern = p
	}
}

// WithClipWriter sets the clip encoder.
func WithClipWriter(w ClipWriter) Option {
	return func(d *Dispatcher) {
		d.clips = w
	}
}

// WithNotifier sets the clip delivery.
func WithNotifier(n Notifier) Option {
	return func(d *Dispatcher) {
		d.notifier = n
	}
}

// WithRecordQueue sets the queue event records are handed to.
func WithRecordQueue(q RecordQueue) Option {
	return func(d *Dispatcher) {
		d.records = q
	}
}

// WithDeduper replaces the default per-event action guard.
func WithDeduper(g dedupe.Deduper) Option {
	return func(d *Dispatcher) {
		if g != nil {
			d.guard = g
		}
	}
}

// WithReporter sets the error tracker task failures are sent to.
func WithReporter(r Reporter) Option {
	return func(d *Dispatcher) {
		d.reporter = r
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// WithKeepClips keeps clip files after delivery.
func WithKeepClips(keep bool) Option {
	return func(d *Dispatcher) {
		d.keepClips = keep
	}
}
