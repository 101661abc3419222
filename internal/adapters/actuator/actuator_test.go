package actuator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"periph.io/x/conn/v3/gpio"

	"github.com/okian/spraycam/internal/domain/model"
	"github.com/okian/spraycam/pkg/logger"
)

type fakePin struct {
	mu     sync.Mutex
	levels []gpio.Level
	failOn int // 1-based call that fails; 0 never
}

func (p *fakePin) Out(l gpio.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.levels = append(p.levels, l)
	if p.failOn == len(p.levels) {
		return errors.New("pin busy")
	}
	return nil
}

func (p *fakePin) history() []gpio.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]gpio.Level(nil), p.levels...)
}

func TestGPIOActivate(t *testing.T) {
	pattern := model.SprayPattern{OnPress: time.Millisecond, Spray: time.Millisecond, OffPress: time.Millisecond}

	Convey("Given a GPIO actuator", t, func() {
		pin := &fakePin{}
		g, err := NewGPIO(pin, WithLogger(logger.Nop()))
		So(err, ShouldBeNil)

		Convey("Then the pin starts low", func() {
			So(pin.history(), ShouldResemble, []gpio.Level{gpio.Low})
		})

		Convey("When a full pattern runs", func() {
			err := g.Activate(context.Background(), pattern)

			Convey("Then the button is pressed twice and released", func() {
				So(err, ShouldBeNil)
				So(pin.history(), ShouldResemble, []gpio.Level{gpio.Low, gpio.High, gpio.Low, gpio.High, gpio.Low})
			})
		})

		Convey("When the context ends mid-pattern", func() {
			ctx, cancel := context.WithCancel(context.Background())
			go func() {
				time.Sleep(10 * time.Millisecond)
				cancel()
			}()
			err := g.Activate(ctx, model.SprayPattern{OnPress: time.Minute})

			Convey("Then the pin is released and the context error returned", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(pin.history(), ShouldResemble, []gpio.Level{gpio.Low, gpio.High, gpio.Low})
			})
		})

		Convey("When the pin fails", func() {
			pin.failOn = 3
			err := g.Activate(context.Background(), pattern)

			Convey("Then the error is returned and the pin driven low", func() {
				So(err, ShouldNotBeNil)
				h := pin.history()
				So(h[len(h)-1], ShouldEqual, gpio.Low)
			})
		})

		Convey("When closed", func() {
			So(g.Close(), ShouldBeNil)
			h := pin.history()
			So(h[len(h)-1], ShouldEqual, gpio.Low)
		})
	})

	Convey("Given a pin that cannot be driven", t, func() {
		_, err := NewGPIO(&fakePin{failOn: 1}, WithLogger(logger.Nop()))
		So(err, ShouldNotBeNil)
	})
}

func TestMock(t *testing.T) {
	Convey("Given a mock actuator", t, func() {
		m := NewMock(WithLogger(logger.Nop()))

		Convey("When activated", func() {
			start := time.Now()
			err := m.Activate(context.Background(), model.SprayPattern{Spray: 20 * time.Millisecond})

			Convey("Then it waits the pattern and counts the activation", func() {
				So(err, ShouldBeNil)
				So(time.Since(start), ShouldBeGreaterThanOrEqualTo, 20*time.Millisecond)
				So(m.Activations(), ShouldEqual, 1)
				So(m.SafeState(), ShouldBeNil)
			})
		})

		Convey("When the context is canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			So(errors.Is(m.Activate(ctx, model.SprayPattern{Spray: time.Minute}), context.Canceled), ShouldBeTrue)
		})
	})
}
