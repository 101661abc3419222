// Package dispatch runs the side effects of an event (actuator pulse, clip
// capture and delivery, event record) as detached tasks so the control loop
// never waits on them.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/spraycam/internal/domain/dedupe"
	"github.com/okian/spraycam/internal/domain/model"
	"github.com/okian/spraycam/pkg/logger"
	"github.com/okian/spraycam/pkg/metrics"
)

// Action names used for deduplication, logging and metrics.
const (
	ActionActuator = "actuator"
	ActionCapture  = "capture"
	ActionRecord   = "record"
)

// Actuator drives the deterrent.
type Actuator interface {
	// Activate runs the whole press sequence and returns when it is done or ctx ends.
	Activate(ctx context.Context, p model.SprayPattern) error
	// SafeState forces the output inactive.
	SafeState() error
}

// ClipWriter encodes a frame sequence into a playable clip.
type ClipWriter interface {
	Write(ctx context.Context, ev model.Event, frames []model.RawFrame, fps int) (model.Clip, error)
	// Discard removes the local clip file.
	Discard(clip model.Clip) error
}

// Notifier delivers a clip (or a fallback notice) to the user.
// It reports whether anything was delivered.
type Notifier interface {
	Deliver(ctx context.Context, ev model.Event, clip model.Clip) bool
}

// RecordQueue accepts event records without blocking.
type RecordQueue interface {
	Enqueue(ctx context.Context, r model.EventRecord) bool
}

// Reporter forwards task failures to an error tracker.
type Reporter interface {
	Report(ctx context.Context, component string, err error)
}

// Dispatcher owns every background task it starts. Methods may be called from
// the control loop while tasks run; Shutdown may be called from any goroutine.
type Dispatcher struct {
	actuator  Actuator
	pattern   model.SprayPattern
	clips     ClipWriter
	notifier  Notifier
	records   RecordQueue
	guard     dedupe.Deduper
	reporter  Reporter
	log       logger.Logger
	keepClips bool

	mu     sync.Mutex // guards closed and wg.Add
	closed bool
	wg     sync.WaitGroup

	actuatorActive atomic.Bool

	// abort is canceled when Shutdown stops waiting for tasks.
	abort     context.Context
	abortFunc context.CancelFunc
}

// New creates a dispatcher. Collaborators left unset disable their action.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{}
	for _, opt := range opts {
		opt(d)
	}
	if d.guard == nil {
		d.guard = dedupe.NewInMemoryDeduper()
	}
	if d.log == nil {
		d.log = logger.Get().Named("dispatch")
	}
	d.abort, d.abortFunc = context.WithCancel(context.Background())
	return d
}

// StartActuator starts the actuator task for ev. The request is refused when
// the event already had one, or while a previous activation is still running.
func (d *Dispatcher) StartActuator(ctx context.Context, ev model.Event) {
	if d.actuator == nil {
		return
	}
	if d.guard.SeenAndRecord(ctx, ev.ID, ActionActuator) {
		metrics.RecordActionDuplicate(ActionActuator)
		return
	}
	if !d.actuatorActive.CompareAndSwap(false, true) {
		metrics.RecordActuatorRefused()
		d.log.Warn(ctx, "actuator still active, activation refused", logger.String("event_id", ev.ID))
		return
	}
	metrics.UpdateActuatorActive(true)

	started := d.spawn(ctx, ActionActuator, ev, func(tctx context.Context) error {
		defer func() {
			d.actuatorActive.Store(false)
			metrics.UpdateActuatorActive(false)
		}()
		start := time.Now()
		err := d.actuator.Activate(tctx, d.pattern)
		metrics.RecordActuatorDuration(time.Since(start))
		if err != nil {
			metrics.RecordActuatorError()
			return fmt.Errorf("activate: %w", err)
		}
		d.log.Info(tctx, "actuator sequence completed", logger.String("event_id", ev.ID))
		return nil
	})
	if !started {
		d.actuatorActive.Store(false)
		metrics.UpdateActuatorActive(false)
		return
	}
	metrics.RecordActuatorActivation()
}

// IsActuatorActive reports whether an actuator task is running.
func (d *Dispatcher) IsActuatorActive() bool {
	return d.actuatorActive.Load()
}

// StartCapture starts the encode and delivery task for ev. frames must be a
// snapshot the caller no longer mutates.
func (d *Dispatcher) StartCapture(ctx context.Context, ev model.Event, frames []model.RawFrame, fps int) {
	if d.clips == nil {
		return
	}
	if d.guard.SeenAndRecord(ctx, ev.ID, ActionCapture) {
		metrics.RecordActionDuplicate(ActionCapture)
		return
	}

	started := d.spawn(ctx, ActionCapture, ev, func(tctx context.Context) error {
		start := time.Now()
		defer func() { metrics.RecordCaptureDuration(time.Since(start)) }()

		clip, err := d.clips.Write(tctx, ev, frames, fps)
		if err != nil {
			metrics.RecordCaptureError()
			return fmt.Errorf("write clip: %w", err)
		}
		d.log.Info(tctx, "clip written",
			logger.String("event_id", ev.ID),
			logger.String("path", clip.Path),
			logger.Int("frames", clip.Frames),
			logger.Int("fps", clip.FPS))

		if d.notifier != nil {
			d.notifier.Deliver(tctx, ev, clip)
		}
		if !d.keepClips {
			if err := d.clips.Discard(clip); err != nil {
				d.log.Warn(tctx, "failed to remove clip", logger.String("path", clip.Path), logger.Error(err))
			}
		}
		return nil
	})
	if started {
		metrics.RecordCaptureDispatched()
	}
}

// RecordEvent enqueues the event record. A full queue drops the record.
func (d *Dispatcher) RecordEvent(ctx context.Context, ev model.Event) {
	if d.records == nil {
		return
	}
	if d.guard.SeenAndRecord(ctx, ev.ID, ActionRecord) {
		metrics.RecordActionDuplicate(ActionRecord)
		return
	}
	if !d.records.Enqueue(ctx, ev.Record()) {
		metrics.RecordEventRecord("dropped")
		d.log.Warn(ctx, "event record dropped", logger.String("event_id", ev.ID))
	}
}

// spawn runs fn on its own goroutine with a context detached from the
// caller's cancellation. Panics and errors are logged and reported.
func (d *Dispatcher) spawn(ctx context.Context, action string, ev model.Event, fn func(context.Context) error) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.log.Warn(ctx, "dispatcher closed, task not started",
			logger.String("action", action), logger.String("event_id", ev.ID))
		return false
	}
	d.wg.Add(1)
	d.mu.Unlock()

	tctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(d.abort, cancel)

	go func() {
		defer d.wg.Done()
		defer stop()
		defer cancel()

		err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: %v", ErrTaskPanic, r)
				}
			}()
			return fn(tctx)
		}()
		if err != nil {
			metrics.RecordErrorByComponent(action, "task_failed")
			d.log.Error(tctx, "task failed",
				logger.String("action", action),
				logger.String("event_id", ev.ID),
				logger.Error(err))
			if d.reporter != nil {
				d.reporter.Report(tctx, action, err)
			}
		}
	}()
	return true
}

// Shutdown refuses new tasks and waits for running ones until ctx ends, then
// cancels whatever is left. The actuator is always forced into its safe state.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	var errs []error
	select {
	case <-done:
	case <-ctx.Done():
		d.log.Warn(ctx, "abandoning in-flight tasks", logger.Bool("actuator_active", d.IsActuatorActive()))
		errs = append(errs, fmt.Errorf("%w: %w", ErrShutdownTimeout, ctx.Err()))
	}
	d.abortFunc()

	if d.actuator != nil {
		if err := d.actuator.SafeState(); err != nil {
			errs = append(errs, fmt.Errorf("actuator safe state: %w", err))
		}
	}
	return errors.Join(errs...)
}
