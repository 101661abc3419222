package lifecycle

import "github.com/okian/spraycam/pkg/logger"

const defaultLeadSeconds = -2

// Option applies a configuration option to the Lifecycle.
type Option func(*Lifecycle)

// WithLeadSeconds sets the clip start offset relative to the trigger.
func WithLeadSeconds(seconds float64) Option {
	return func(l *Lifecycle) {
		l.leadSeconds = seconds
	}
}

// WithActuatorEnabled gates the actuator action on trigger.
func WithActuatorEnabled(enabled bool) Option {
	return func(l *Lifecycle) {
		l.actuatorEnabled = enabled
	}
}

// WithCaptureEnabled gates the clip capture action.
func WithCaptureEnabled(enabled bool) Option {
	return func(l *Lifecycle) {
		l.captureEnabled = enabled
	}
}

// WithIDGenerator replaces the uuid based event id generator.
func WithIDGenerator(fn func() string) Option {
	return func(l *Lifecycle) {
		if fn != nil {
			l.newID = fn
		}
	}
}

// WithLogger sets the logger for lifecycle transitions.
func WithLogger(log logger.Logger) Option {
	return func(l *Lifecycle) {
		l.log = log
	}
}
