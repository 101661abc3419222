package detector_test

import (
	"testing"

	"github.com/okian/spraycam/internal/domain/detector"
	"github.com/okian/spraycam/internal/domain/window"
	. "github.com/smartystreets/goconvey/convey"
)

func fill(values ...bool) *window.Window[bool] {
	w := window.New[bool](len(values))
	for _, v := range values {
		w.Push(v)
	}
	return w
}

func TestDetect(t *testing.T) {
	Convey("Given a detector with trigger ratio 0.25", t, func() {
		d := detector.New(detector.WithTriggerRatio(0.25))

		Convey("When two of four frames show presence", func() {
			ok, ratio := d.Detect(fill(false, false, true, true))

			Convey("Then an event is detected", func() {
				So(ok, ShouldBeTrue)
				So(ratio, ShouldEqual, 0.5)
			})
		})

		Convey("When exactly one of four frames shows presence", func() {
			ok, ratio := d.Detect(fill(false, false, false, true))

			Convey("Then the strict comparison rejects it", func() {
				So(ok, ShouldBeFalse)
				So(ratio, ShouldEqual, 0.25)
			})
		})

		Convey("When the window is empty", func() {
			ok, ratio := d.Detect(window.New[bool](4))

			Convey("Then nothing is detected", func() {
				So(ok, ShouldBeFalse)
				So(ratio, ShouldEqual, 0)
			})
		})

		Convey("When the window is under-filled", func() {
			w := window.New[bool](8)
			w.Push(true)
			w.Push(true)
			ok, ratio := d.Detect(w)

			Convey("Then the ratio is taken against the capacity", func() {
				So(ratio, ShouldEqual, 0.25)
				So(ok, ShouldBeFalse)
			})
		})
	})

	Convey("Given invalid trigger ratios", t, func() {
		So(detector.New(detector.WithTriggerRatio(0)).TriggerRatio(), ShouldEqual, 0.25)
		So(detector.New(detector.WithTriggerRatio(1.5)).TriggerRatio(), ShouldEqual, 0.25)
		So(detector.New(detector.WithTriggerRatio(0.6)).TriggerRatio(), ShouldEqual, 0.6)
	})
}
