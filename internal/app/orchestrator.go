package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/spraycam/internal/config"
	"github.com/okian/spraycam/internal/domain/detector"
	"github.com/okian/spraycam/internal/domain/fps"
	"github.com/okian/spraycam/internal/domain/lifecycle"
	"github.com/okian/spraycam/internal/domain/model"
	"github.com/okian/spraycam/internal/domain/types"
	"github.com/okian/spraycam/internal/domain/window"
	"github.com/okian/spraycam/pkg/logger"
	"github.com/okian/spraycam/pkg/metrics"
)

// Window names used in metrics.
const (
	windowDetection = "detection"
	windowFrames    = "frames"
)

// skipBackoff paces the loop while the source keeps failing.
const skipBackoff = 50 * time.Millisecond

// FrameSource yields classified frames. An error means no frame this tick.
type FrameSource interface {
	NextFrame(ctx context.Context) (model.Frame, error)
}

// ActionDispatcher starts event side effects and reports actuator liveness.
type ActionDispatcher interface {
	lifecycle.Dispatcher
	IsActuatorActive() bool
}

// Orchestrator runs the control loop. Tick and Run must be called from a
// single goroutine; Status may be called from any goroutine.
type Orchestrator struct {
	source     FrameSource
	dispatcher ActionDispatcher

	detectionSeconds float64
	videoSeconds     float64

	rate       *fps.Tracker
	detections *window.Window[bool]
	frames     *window.Window[model.RawFrame]
	detector   *detector.Detector
	lifecycle  *lifecycle.Lifecycle

	applied       int
	resizePending bool
	lastRatio     float64

	processed uint64
	skipped   uint64
	triggered uint64

	status  atomic.Pointer[types.Status]
	skipLog *rate.Limiter
	now     func() time.Time
	log     logger.Logger
}

// NewOrchestrator sizes every window from the initial rate estimate and
// returns an idle loop.
func NewOrchestrator(cfg *config.Config, source FrameSource, dispatcher ActionDispatcher, opts ...LoopOption) *Orchestrator {
	lo := loopOptions{now: time.Now}
	for _, opt := range opts {
		opt(&lo)
	}
	if lo.log == nil {
		lo.log = logger.Get().Named("loop")
	}

	initial := cfg.InitialRateEstimate
	o := &Orchestrator{
		source:           source,
		dispatcher:       dispatcher,
		detectionSeconds: cfg.DetectionWindowSeconds,
		videoSeconds:     cfg.VideoWindowSeconds,
		rate:             fps.New(initial, cfg.RateWindowSeconds),
		detections:       window.New[bool](window.CapacityFor(initial, cfg.DetectionWindowSeconds)),
		frames:           window.New[model.RawFrame](window.CapacityFor(initial, cfg.VideoWindowSeconds)),
		detector:         detector.New(detector.WithTriggerRatio(cfg.TriggerRatio)),
		skipLog:          rate.NewLimiter(rate.Every(5*time.Second), 1),
		now:              lo.now,
		log:              lo.log,
	}
	o.applied = o.rate.Rounded()

	lcOpts := []lifecycle.Option{
		lifecycle.WithLeadSeconds(cfg.EventLeadSeconds),
		lifecycle.WithActuatorEnabled(cfg.ActuatorEnabled),
		lifecycle.WithCaptureEnabled(cfg.CaptureEnabled),
		lifecycle.WithLogger(o.log),
	}
	if lo.newID != nil {
		lcOpts = append(lcOpts, lifecycle.WithIDGenerator(lo.newID))
	}
	o.lifecycle = lifecycle.New(o.frames, dispatcher, lcOpts...)

	metrics.UpdateWindowCapacity(windowDetection, o.detections.Capacity())
	metrics.UpdateWindowCapacity(windowFrames, o.frames.Capacity())
	o.publish()
	return o
}

// Run ticks until ctx is canceled.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.log.Info(ctx, "control loop started",
		logger.Int("rate", o.applied),
		logger.Int("detection_window", o.detections.Capacity()),
		logger.Int("frame_window", o.frames.Capacity()))
	for {
		if err := ctx.Err(); err != nil {
			o.log.Info(ctx, "control loop stopped", logger.Uint64("frames", o.processed))
			return err
		}
		ok, err := o.Tick(ctx)
		if err != nil {
			continue
		}
		if !ok {
			t := time.NewTimer(skipBackoff)
			select {
			case <-ctx.Done():
			case <-t.C:
			}
			t.Stop()
		}
	}
}

// Tick runs one iteration of the loop and reports whether a frame was
// processed. A frame failure skips the tick without touching any state. The
// returned error is non-nil only when ctx ended.
func (o *Orchestrator) Tick(ctx context.Context) (bool, error) {
	began := time.Now()
	start := o.now()

	frame, err := o.source.NextFrame(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		o.skipped++
		metrics.RecordFrameSkipped()
		if o.skipLog.Allow() {
			o.log.Warn(ctx, "frame unavailable, skipping tick",
				logger.Error(err),
				logger.Uint64("skipped", o.skipped))
		}
		o.publish()
		return false, nil
	}

	o.rate.Observe(start)
	cur := o.rate.Rounded()

	o.detections.Push(frame.Present)
	o.frames.Push(frame.Raw)

	detected, ratio := o.detector.Detect(o.detections)
	o.lastRatio = ratio

	prev := o.lifecycle.State()
	state := o.lifecycle.Advance(ctx, start, detected, cur)
	if prev == model.StateIdle && state == model.StateTriggered {
		o.triggered++
		metrics.RecordEventTriggered()
	}

	o.maybeResize(ctx, cur, state)

	o.processed++
	metrics.RecordFrameProcessed()
	metrics.RecordTickLatency(float64(time.Since(began).Microseconds()) / 1000)
	metrics.UpdateEffectiveRate(o.rate.Current())
	metrics.UpdateDetectionRatio(ratio)
	metrics.UpdateLifecycleState(int(state))
	metrics.UpdateCountdown(o.lifecycle.Countdown())
	o.publish()
	return true, nil
}

// maybeResize re-derives window capacities when the rounded rate changed.
// While an event is in flight the change is held until the loop is idle.
func (o *Orchestrator) maybeResize(ctx context.Context, cur int, state model.State) {
	if !fps.Changed(o.applied, cur) {
		o.resizePending = false
		return
	}
	if state != model.StateIdle {
		if !o.resizePending {
			metrics.RecordWindowResizeDeferred()
			o.log.Debug(ctx, "window resize deferred", logger.Int("from", o.applied), logger.Int("to", cur))
		}
		o.resizePending = true
		return
	}

	o.detections.Resize(window.CapacityFor(float64(cur), o.detectionSeconds))
	o.frames.Resize(window.CapacityFor(float64(cur), o.videoSeconds))
	o.log.Info(ctx, "windows resized",
		logger.Int("from", o.applied),
		logger.Int("to", cur),
		logger.Int("detection_window", o.detections.Capacity()),
		logger.Int("frame_window", o.frames.Capacity()))
	o.applied = cur
	o.resizePending = false

	metrics.RecordWindowResize()
	metrics.UpdateAppliedRate(cur)
	metrics.UpdateWindowCapacity(windowDetection, o.detections.Capacity())
	metrics.UpdateWindowCapacity(windowFrames, o.frames.Capacity())
}

func (o *Orchestrator) publish() {
	state := o.lifecycle.State()
	active := o.dispatcher.IsActuatorActive()
	st := &types.Status{
		State:           state.String(),
		EffectiveRate:   o.rate.Current(),
		AppliedRate:     o.applied,
		DetectionRatio:  o.lastRatio,
		DetectionWindow: o.detections.Capacity(),
		FrameWindow:     o.frames.Capacity(),
		Countdown:       o.lifecycle.Countdown(),
		ActuatorActive:  active,
		ResizePending:   o.resizePending,
		FramesProcessed: o.processed,
		FramesSkipped:   o.skipped,
		EventsTriggered: o.triggered,
	}
	if ev, ok := o.lifecycle.Current(); ok {
		st.EventID = ev.ID
		st.Message = statusMessage(st.Countdown, o.applied, active)
	} else if active {
		st.Message = statusMessage(0, o.applied, active)
	}
	o.status.Store(st)
}

// Status returns the snapshot published by the last tick.
func (o *Orchestrator) Status() types.Status {
	return *o.status.Load()
}

// statusMessage describes an in-flight event: seconds until the clip is
// captured and whether the deterrent is running.
func statusMessage(countdown, applied int, actuatorActive bool) string {
	var parts []string
	if actuatorActive {
		parts = append(parts, "deterrent active")
	}
	if countdown > 0 {
		secs := int(math.Ceil(float64(countdown) / float64(max(1, applied))))
		parts = append(parts, fmt.Sprintf("capturing clip in %d seconds", secs))
	}
	return strings.Join(parts, "; ")
}
