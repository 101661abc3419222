package service

import (
	"time"

	"github.com/okian/spraycam/internal/adapters/dispatch"
	"github.com/okian/spraycam/internal/adapters/mq/worker"
	"github.com/okian/spraycam/internal/adapters/repository"
	"github.com/okian/spraycam/pkg/logger"
)

type loopOptions struct {
	now   func() time.Time
	newID func() string
	log   logger.Logger
}

// LoopOption configures the Orchestrator.
type LoopOption func(*loopOptions)

// WithLoopClock sets the tick clock. It must carry monotonic readings in production.
func WithLoopClock(now func() time.Time) LoopOption {
	return func(o *loopOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLoopIDGenerator sets the event id generator.
func WithLoopIDGenerator(fn func() string) LoopOption {
	return func(o *loopOptions) { o.newID = fn }
}

// WithLoopLogger sets the loop logger.
func WithLoopLogger(l logger.Logger) LoopOption {
	return func(o *loopOptions) {
		if l != nil {
			o.log = l
		}
	}
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithFrameSource sets the camera pipeline.
func WithFrameSource(src FrameSource) Option {
	return func(s *Service) { s.source = src }
}

// WithActuator sets the deterrent driver.
func WithActuator(a dispatch.Actuator) Option {
	return func(s *Service) { s.actuator = a }
}

// WithClipWriter sets the clip encoder.
func WithClipWriter(w dispatch.ClipWriter) Option {
	return func(s *Service) { s.clips = w }
}

// WithNotifier sets the clip delivery.
func WithNotifier(n dispatch.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithEventLog sets the event store.
func WithEventLog(l repository.EventLog) Option {
	return func(s *Service) { s.events = l }
}

// WithPublisher sets the optional event announcer.
func WithPublisher(p worker.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithReporter sets the error tracker for background task failures.
func WithReporter(r dispatch.Reporter) Option {
	return func(s *Service) { s.reporter = r }
}

// WithWorkerCount sets the number of record workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLoopOptions passes options through to the Orchestrator.
func WithLoopOptions(opts ...LoopOption) Option {
	return func(s *Service) { s.loopOpts = append(s.loopOpts, opts...) }
}
