package classifier

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/spraycam/internal/domain/model"
	"github.com/okian/spraycam/pkg/logger"
)

func TestPresent(t *testing.T) {
	Convey("Given detector outputs", t, func() {
		Convey("When the target class scores above the threshold", func() {
			ok, score := Present([]float32{1, 16, 16}, []float32{0.9, 0.7, 0.66}, 16, 0.65)

			Convey("Then it is present with the best target score", func() {
				So(ok, ShouldBeTrue)
				So(score, ShouldAlmostEqual, 0.7, 1e-6)
			})
		})

		Convey("When only other classes score high", func() {
			ok, score := Present([]float32{1, 2}, []float32{0.99, 0.98}, 16, 0.65)
			So(ok, ShouldBeFalse)
			So(score, ShouldEqual, 0)
		})

		Convey("When the target score equals the threshold", func() {
			ok, _ := Present([]float32{16}, []float32{0.5}, 16, 0.5)
			So(ok, ShouldBeFalse)
		})

		Convey("When class ids carry float noise", func() {
			ok, _ := Present([]float32{15.9999}, []float32{0.8}, 16, 0.65)
			So(ok, ShouldBeTrue)
		})

		Convey("When the slices differ in length", func() {
			ok, _ := Present([]float32{16, 16}, []float32{0.1}, 16, 0.65)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestPrepare(t *testing.T) {
	Convey("Given a uniform BGR frame", t, func() {
		raw := model.RawFrame{Width: 4, Height: 2, Data: make([]byte, 4*2*3)}
		for i := 0; i < len(raw.Data); i += 3 {
			raw.Data[i], raw.Data[i+1], raw.Data[i+2] = 10, 20, 30
		}

		Convey("When prepared for a 2x2 input", func() {
			out, err := prepare(raw, 2, 2)

			Convey("Then it is resized and converted to RGB", func() {
				So(err, ShouldBeNil)
				So(out, ShouldHaveLength, 2*2*3)
				So(out[:3], ShouldResemble, []byte{30, 20, 10})
			})
		})
	})

	Convey("Given a frame whose data does not match its size", t, func() {
		_, err := prepare(model.RawFrame{Width: 4, Height: 4, Data: []byte{1, 2, 3}}, 2, 2)
		So(errors.Is(err, ErrEmptyFrame), ShouldBeTrue)
	})
}

func TestOpen(t *testing.T) {
	Convey("Given a missing model file", t, func() {
		_, err := Open(filepath.Join(t.TempDir(), "detect.tflite"), WithLogger(logger.Nop()))
		So(errors.Is(err, ErrModelLoad), ShouldBeTrue)
	})

	Convey("Given an opened classifier", t, func() {
		c := &TFLite{log: logger.Nop()}

		Convey("Then empty frames are rejected before inference", func() {
			_, _, err := c.Classify(context.Background(), model.RawFrame{})
			So(errors.Is(err, ErrEmptyFrame), ShouldBeTrue)
		})
	})
}

func TestOptions(t *testing.T) {
	Convey("Given classifier options", t, func() {
		o := options{target: defaultTargetClass, minConf: defaultMinConfidence, threads: defaultThreads}
		for _, opt := range []Option{WithTargetClass(-1), WithMinConfidence(1.5), WithThreads(0), WithLogger(nil)} {
			opt(&o)
		}

		Convey("Then invalid values are ignored", func() {
			So(o.target, ShouldEqual, 16)
			So(o.minConf, ShouldEqual, 0.65)
			So(o.threads, ShouldEqual, 2)
			So(o.log, ShouldBeNil)
		})

		Convey("Then valid values apply", func() {
			WithTargetClass(17)(&o)
			WithMinConfidence(0.5)(&o)
			WithThreads(4)(&o)
			So(o.target, ShouldEqual, 17)
			So(o.minConf, ShouldEqual, 0.5)
			So(o.threads, ShouldEqual, 4)
		})
	})
}
