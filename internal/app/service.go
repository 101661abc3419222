// Package service wires the control loop to its adapters and owns their
// startup and shutdown order.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/okian/spraycam/internal/adapters/dispatch"
	eventqueue "github.com/okian/spraycam/internal/adapters/mq/queue"
	workerpool "github.com/okian/spraycam/internal/adapters/mq/worker"
	repository "github.com/okian/spraycam/internal/adapters/repository"
	"github.com/okian/spraycam/internal/config"
	"github.com/okian/spraycam/internal/domain/dedupe"
	"github.com/okian/spraycam/internal/domain/types"
	"github.com/okian/spraycam/pkg/logger"
	"github.com/okian/spraycam/pkg/metrics"
)

// Service runs one camera, one actuator and their event pipeline.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	// Adapters
	source    FrameSource
	actuator  dispatch.Actuator
	clips     dispatch.ClipWriter
	notifier  dispatch.Notifier
	events    repository.EventLog
	publisher workerpool.Publisher
	reporter  dispatch.Reporter

	workerCount int
	loopOpts    []LoopOption

	// Runtime
	queue      *eventqueue.InMemoryQueue
	pool       *workerpool.Pool
	dispatcher *dispatch.Dispatcher
	loop       *Orchestrator
	cancelLoop context.CancelFunc
	loopDone   chan struct{}
	started    bool
	startedAt  time.Time

	logger logger.Logger
}

// New constructs a Service. Adapters are injected with options; Start
// validates that the required ones are present.
func New(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg:         cfg,
		workerCount: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the record pipeline, the dispatcher and the loop, then runs
// the loop on its own goroutine.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	if s.source == nil {
		return ErrNoFrameSource
	}
	if s.events == nil {
		return ErrNoEventLog
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting spraycam service...")

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.cfg.EventQueueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.events, s.publisher,
		workerpool.WithLogger(s.logger.Named("records")),
		workerpool.WithDrainTimeout(s.cfg.ShutdownTimeout))
	s.pool.Start(context.WithoutCancel(ctx))

	dopts := []dispatch.Option{
		dispatch.WithRecordQueue(s.queue),
		dispatch.WithDeduper(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.cfg.DedupeSize))),
		dispatch.WithKeepClips(s.cfg.KeepClips),
		dispatch.WithLogger(s.logger.Named("dispatch")),
	}
	if s.actuator != nil {
		dopts = append(dopts, dispatch.WithActuator(s.actuator, s.cfg.SprayPattern()))
	}
	if s.clips != nil {
		dopts = append(dopts, dispatch.WithClipWriter(s.clips))
	}
	if s.notifier != nil {
		dopts = append(dopts, dispatch.WithNotifier(s.notifier))
	}
	if s.reporter != nil {
		dopts = append(dopts, dispatch.WithReporter(s.reporter))
	}
	s.dispatcher = dispatch.New(dopts...)

	loopOpts := append([]LoopOption{WithLoopLogger(s.logger.Named("loop"))}, s.loopOpts...)
	s.loop = NewOrchestrator(s.cfg, s.source, s.dispatcher, loopOpts...)

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancelLoop = cancel
	s.loopDone = make(chan struct{})
	go func() {
		defer close(s.loopDone)
		_ = s.loop.Run(loopCtx)
	}()

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "spraycam service started",
		logger.Bool("actuator", s.actuator != nil && s.cfg.ActuatorEnabled),
		logger.Bool("capture", s.clips != nil && s.cfg.CaptureEnabled),
		logger.Int("queue_size", s.cfg.EventQueueSize),
	)
	return nil
}

// Stop shuts down in order: loop, dispatcher (actuator forced safe), record
// workers, frame source, actuator, publisher, event log. ctx bounds the waiting for
// in-flight tasks and queued records.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping spraycam service...")

	s.cancelLoop()
	<-s.loopDone

	var errs []error
	if err := s.dispatcher.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("dispatcher: %w", err))
	}
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("record workers: %w", err))
	}
	closeIf(s.source, "frame source", &errs)
	closeIf(s.actuator, "actuator", &errs)
	closeIf(s.publisher, "publisher", &errs)
	if err := s.events.Close(); err != nil {
		errs = append(errs, fmt.Errorf("event log: %w", err))
	}

	s.started = false
	err := errors.Join(errs...)
	if err != nil {
		s.logger.Warn(ctx, "spraycam service stopped with errors", logger.Error(err))
	} else {
		s.logger.Info(ctx, "spraycam service stopped")
	}
	return err
}

func closeIf(v any, name string, errs *[]error) {
	if c, ok := v.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			*errs = append(*errs, fmt.Errorf("%s: %w", name, err))
		}
	}
}

// Status returns the latest loop snapshot; an idle zero status before Start.
func (s *Service) Status() types.Status {
	s.mu.RLock()
	loop := s.loop
	s.mu.RUnlock()
	if loop == nil {
		return types.Status{State: "idle"}
	}
	return loop.Status()
}

// Events returns the event log.
func (s *Service) Events() repository.EventLog { return s.events }

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.cfg.EventQueueSize,
		"dedupeSize":  s.cfg.DedupeSize,
	}
	if !s.started {
		return stats
	}

	queueLen := s.queue.Len()
	stats["queueLength"] = queueLen
	stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
	stats["actuatorActive"] = s.dispatcher.IsActuatorActive()
	if n, err := s.events.Count(context.Background()); err == nil {
		stats["totalEvents"] = n
	}
	metrics.UpdateQueueSize(queueLen)
	return stats
}
