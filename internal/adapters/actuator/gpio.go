// Package actuator drives the sprayer.
package actuator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/okian/spraycam/internal/domain/model"
	"github.com/okian/spraycam/pkg/logger"
)

// Pin is the output line the sprayer button is wired to.
type Pin interface {
	Out(l gpio.Level) error
}

// GPIO presses the sprayer button through a GPIO pin. The sprayer toggles on
// each press, so one activation is press, spray, press.
type GPIO struct {
	mu  sync.Mutex
	pin Pin
	log logger.Logger
}

// OpenGPIO initializes the host drivers and claims the named pin, e.g. "GPIO18".
func OpenGPIO(name string, opts ...Option) (*GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%w: host init: %w", ErrUnavailable, err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: pin %q not found", ErrUnavailable, name)
	}
	return NewGPIO(p, opts...)
}

// NewGPIO wraps pin and drives it low.
func NewGPIO(pin Pin, opts ...Option) (*GPIO, error) {
	o := applyOptions(opts)
	g := &GPIO{pin: pin, log: o.log}
	if err := g.SafeState(); err != nil {
		return nil, err
	}
	return g, nil
}

// Activate runs one spray pattern. When ctx ends mid-pattern the pin is
// released and ctx.Err is returned.
func (g *GPIO) Activate(ctx context.Context, p model.SprayPattern) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	steps := []struct {
		level gpio.Level
		hold  time.Duration
	}{
		{gpio.High, p.OnPress},
		{gpio.Low, p.Spray},
		{gpio.High, p.OffPress},
	}
	for _, s := range steps {
		if err := g.pin.Out(s.level); err != nil {
			_ = g.pin.Out(gpio.Low)
			return fmt.Errorf("actuator: set %s: %w", s.level, err)
		}
		if err := sleep(ctx, s.hold); err != nil {
			_ = g.pin.Out(gpio.Low)
			g.log.Warn(ctx, "spray pattern aborted", logger.Error(err))
			return err
		}
	}
	if err := g.pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("actuator: release: %w", err)
	}
	return nil
}

// SafeState drives the pin low.
func (g *GPIO) SafeState() error {
	if err := g.pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("actuator: safe state: %w", err)
	}
	return nil
}

// Close releases the pin.
func (g *GPIO) Close() error {
	return g.SafeState()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
