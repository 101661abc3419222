// Package detector decides whether the presence evidence in a window is
// strong enough to call an event.
package detector

import "github.com/okian/spraycam/internal/domain/window"

const defaultTriggerRatio = 0.25

// Detector compares the presence ratio of a window against a trigger ratio.
// There is no hysteresis band: the decision is made on every tick.
type Detector struct {
	triggerRatio float64
}

// New returns a detector with the default trigger ratio unless overridden.
func New(opts ...Option) *Detector {
	d := &Detector{triggerRatio: defaultTriggerRatio}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect reports whether RatioTrue(w) is strictly greater than the trigger
// ratio, along with the ratio itself.
func (d *Detector) Detect(w *window.Window[bool]) (bool, float64) {
	r := window.RatioTrue(w)
	return r > d.triggerRatio, r
}

// TriggerRatio returns the configured threshold.
func (d *Detector) TriggerRatio() float64 { return d.triggerRatio }
