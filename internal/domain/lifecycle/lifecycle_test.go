package lifecycle_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/okian/spraycam/internal/domain/detector"
	"github.com/okian/spraycam/internal/domain/lifecycle"
	"github.com/okian/spraycam/internal/domain/model"
	"github.com/okian/spraycam/internal/domain/window"
	. "github.com/smartystreets/goconvey/convey"
)

type call struct {
	kind   string
	id     string
	tick   int
	frames int
	fps    int
}

type fakeDispatcher struct {
	tick  int
	calls []call
}

func (f *fakeDispatcher) StartActuator(_ context.Context, ev model.Event) {
	f.calls = append(f.calls, call{kind: "actuator", id: ev.ID, tick: f.tick})
}

func (f *fakeDispatcher) StartCapture(_ context.Context, ev model.Event, frames []model.RawFrame, fps int) {
	f.calls = append(f.calls, call{kind: "capture", id: ev.ID, tick: f.tick, frames: len(frames), fps: fps})
}

func (f *fakeDispatcher) RecordEvent(_ context.Context, ev model.Event) {
	f.calls = append(f.calls, call{kind: "record", id: ev.ID, tick: f.tick})
}

func (f *fakeDispatcher) count(kind string) int {
	n := 0
	for _, c := range f.calls {
		if c.kind == kind {
			n++
		}
	}
	return n
}

func (f *fakeDispatcher) first(kind string) call {
	for _, c := range f.calls {
		if c.kind == kind {
			return c
		}
	}
	return call{}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("ev-%d", n)
	}
}

func TestCaptureDelay(t *testing.T) {
	Convey("Given frame capacities, leads and rates", t, func() {
		Convey("Then a 12s clip at rate 5 with lead -2s captures after 50 ticks", func() {
			So(window.CapacityFor(5, 12), ShouldEqual, 60)
			So(lifecycle.CaptureDelay(60, -2, 5), ShouldEqual, 50)
		})

		Convey("Then a positive lead extends the delay", func() {
			So(lifecycle.CaptureDelay(48, 1, 4), ShouldEqual, 52)
		})

		Convey("Then the delay is never below one tick", func() {
			So(lifecycle.CaptureDelay(4, -10, 4), ShouldEqual, 1)
			So(lifecycle.CaptureDelay(1, 0, 0), ShouldEqual, 1)
		})
	})
}

func TestLifecycle(t *testing.T) {
	Convey("Given an idle lifecycle over a 60 frame window", t, func() {
		ctx := context.Background()
		frames := window.New[model.RawFrame](60)
		disp := &fakeDispatcher{}
		lc := lifecycle.New(frames, disp, lifecycle.WithLeadSeconds(-2), lifecycle.WithIDGenerator(sequentialIDs()))
		start := time.Now()

		advance := func(detected bool) model.State {
			disp.tick++
			frames.Push(model.RawFrame{Width: 1, Height: 1, Data: []byte{1, 2, 3}})
			return lc.Advance(ctx, start.Add(time.Duration(disp.tick)*200*time.Millisecond), detected, 5)
		}

		Convey("When nothing is detected", func() {
			for range 10 {
				So(advance(false), ShouldEqual, model.StateIdle)
			}

			Convey("Then no action is dispatched", func() {
				So(disp.calls, ShouldBeEmpty)
				So(lc.Countdown(), ShouldEqual, 0)
			})
		})

		Convey("When a detection triggers an event", func() {
			So(advance(true), ShouldEqual, model.StateTriggered)
			ev, ok := lc.Current()

			Convey("Then the actuator and record actions start on the trigger tick", func() {
				So(ok, ShouldBeTrue)
				So(ev.ID, ShouldEqual, "ev-1")
				So(ev.CaptureDelay, ShouldEqual, 50)
				So(ev.Rate, ShouldEqual, 5)
				So(lc.Countdown(), ShouldEqual, 50)
				So(disp.count("actuator"), ShouldEqual, 1)
				So(disp.count("record"), ShouldEqual, 1)
				So(disp.count("capture"), ShouldEqual, 0)
				So(disp.first("actuator").tick, ShouldEqual, 1)
			})

			Convey("And further detections are ignored until capture", func() {
				for range 49 {
					So(advance(true), ShouldEqual, model.StateTriggered)
				}
				So(disp.count("actuator"), ShouldEqual, 1)
				So(disp.count("capture"), ShouldEqual, 0)
				So(lc.Countdown(), ShouldEqual, 1)

				Convey("And the capture is dispatched exactly capture-delay ticks after the trigger", func() {
					So(advance(true), ShouldEqual, model.StateIdle)
					c := disp.first("capture")
					So(disp.count("capture"), ShouldEqual, 1)
					So(c.tick-disp.first("actuator").tick, ShouldEqual, 50)
					So(c.id, ShouldEqual, "ev-1")
					So(c.frames, ShouldEqual, 51)
					So(c.fps, ShouldEqual, 5)

					_, ok := lc.Current()
					So(ok, ShouldBeFalse)
				})

				Convey("And a later detection starts a new event", func() {
					advance(false)
					So(advance(true), ShouldEqual, model.StateTriggered)
					ev, _ := lc.Current()
					So(ev.ID, ShouldEqual, "ev-2")
					So(disp.count("actuator"), ShouldEqual, 2)
				})
			})
		})

		Convey("When detections arrive on two consecutive ticks", func() {
			advance(true)
			advance(true)
			for range 60 {
				advance(false)
			}

			Convey("Then exactly one actuator task and one capture task are started", func() {
				So(disp.count("actuator"), ShouldEqual, 1)
				So(disp.count("capture"), ShouldEqual, 1)
				So(disp.count("record"), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a lifecycle with actions gated off", t, func() {
		ctx := context.Background()
		frames := window.New[model.RawFrame](4)
		disp := &fakeDispatcher{}
		lc := lifecycle.New(frames, disp,
			lifecycle.WithLeadSeconds(0),
			lifecycle.WithActuatorEnabled(false),
			lifecycle.WithCaptureEnabled(false))

		lc.Advance(ctx, time.Now(), true, 4)
		for range 4 {
			lc.Advance(ctx, time.Now(), false, 4)
		}

		Convey("Then only the event record is dispatched", func() {
			So(lc.State(), ShouldEqual, model.StateIdle)
			So(disp.count("actuator"), ShouldEqual, 0)
			So(disp.count("capture"), ShouldEqual, 0)
			So(disp.count("record"), ShouldEqual, 1)
		})
	})

	Convey("Given a detector feeding the lifecycle", t, func() {
		ctx := context.Background()
		presence := window.New[bool](4)
		frames := window.New[model.RawFrame](4)
		disp := &fakeDispatcher{}
		det := detector.New(detector.WithTriggerRatio(0.25))
		lc := lifecycle.New(frames, disp, lifecycle.WithLeadSeconds(0))

		Convey("When a single positive frame is seen", func() {
			for _, p := range []bool{false, false, false, true} {
				presence.Push(p)
				ok, _ := det.Detect(presence)
				lc.Advance(ctx, time.Now(), ok, 4)
			}

			Convey("Then no event is triggered", func() {
				So(lc.State(), ShouldEqual, model.StateIdle)
				So(disp.calls, ShouldBeEmpty)
			})
		})

		Convey("When two positive frames are seen", func() {
			for _, p := range []bool{false, false, true, true} {
				presence.Push(p)
				ok, _ := det.Detect(presence)
				lc.Advance(ctx, time.Now(), ok, 4)
			}

			Convey("Then an event is triggered", func() {
				So(lc.State(), ShouldEqual, model.StateTriggered)
				So(lc.Countdown(), ShouldEqual, 4)
			})
		})
	})
}
