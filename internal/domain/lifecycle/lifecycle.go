// Package lifecycle implements the one-shot event state machine: a detection
// while idle triggers an event, and the clip is captured after a fixed number
// of ticks.
package lifecycle

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/okian/spraycam/internal/domain/model"
	"github.com/okian/spraycam/pkg/logger"
)

// FrameBuffer is the frame window snapshotted at capture time.
type FrameBuffer interface {
	Snapshot() []model.RawFrame
	Capacity() int
}

// Dispatcher starts the side effects of an event. Implementations must not
// block the caller.
type Dispatcher interface {
	StartActuator(ctx context.Context, ev model.Event)
	StartCapture(ctx context.Context, ev model.Event, frames []model.RawFrame, fps int)
	RecordEvent(ctx context.Context, ev model.Event)
}

// Lifecycle tracks at most one in-flight event. It is owned by the control
// loop and is not safe for concurrent use.
type Lifecycle struct {
	frames     FrameBuffer
	dispatcher Dispatcher

	leadSeconds     float64
	actuatorEnabled bool
	captureEnabled  bool
	newID           func() string
	log             logger.Logger

	state     model.State
	current   model.Event
	countdown int
}

// New returns an idle lifecycle.
func New(frames FrameBuffer, dispatcher Dispatcher, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		frames:          frames,
		dispatcher:      dispatcher,
		leadSeconds:     defaultLeadSeconds,
		actuatorEnabled: true,
		captureEnabled:  true,
		newID:           uuid.NewString,
		state:           model.StateIdle,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Advance runs one tick of the state machine and returns the resulting state.
// start is the tick start time and rate the rounded effective rate.
func (l *Lifecycle) Advance(ctx context.Context, start time.Time, detected bool, rate int) model.State {
	switch l.state {
	case model.StateIdle:
		if detected {
			l.trigger(ctx, start, rate)
		}
	case model.StateTriggered:
		l.countdown--
		if l.countdown <= 0 {
			l.capture(ctx, rate)
		}
	}
	return l.state
}

func (l *Lifecycle) trigger(ctx context.Context, start time.Time, rate int) {
	ev := model.Event{
		ID:           l.newID(),
		StartedAt:    start,
		CaptureDelay: CaptureDelay(l.frames.Capacity(), l.leadSeconds, rate),
		Rate:         rate,
	}
	l.current = ev
	l.countdown = ev.CaptureDelay
	l.state = model.StateTriggered

	if l.log != nil {
		l.log.Info(ctx, "event triggered",
			logger.String("event_id", ev.ID),
			logger.Int("rate", rate),
			logger.Int("capture_delay", ev.CaptureDelay))
	}
	if l.actuatorEnabled {
		l.dispatcher.StartActuator(ctx, ev)
	}
	l.dispatcher.RecordEvent(ctx, ev)
}

func (l *Lifecycle) capture(ctx context.Context, rate int) {
	ev := l.current
	if l.captureEnabled {
		l.dispatcher.StartCapture(ctx, ev, l.frames.Snapshot(), max(1, rate))
	}
	if l.log != nil {
		l.log.Info(ctx, "event completed", logger.String("event_id", ev.ID), logger.Bool("captured", l.captureEnabled))
	}
	l.current = model.Event{}
	l.countdown = 0
	l.state = model.StateIdle
}

// State returns the current state.
func (l *Lifecycle) State() model.State { return l.state }

// Countdown returns the ticks left until capture, or 0 when idle.
func (l *Lifecycle) Countdown() int { return l.countdown }

// Current returns the in-flight event, if any.
func (l *Lifecycle) Current() (model.Event, bool) {
	return l.current, l.state == model.StateTriggered
}

// CaptureDelay returns the number of ticks between trigger and capture:
// max(1, frameCapacity + round(leadSeconds*rate)). A negative lead makes the
// clip start before the trigger.
func CaptureDelay(frameCapacity int, leadSeconds float64, rate int) int {
	d := frameCapacity + int(math.Round(leadSeconds*float64(rate)))
	if d < 1 {
		return 1
	}
	return d
}
