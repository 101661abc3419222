package detector

// Option applies a configuration option to the Detector.
type Option func(*Detector)

// WithTriggerRatio sets the ratio a window must exceed to detect an event.
// Values outside (0, 1] are ignored.
func WithTriggerRatio(ratio float64) Option {
	return func(d *Detector) {
		if ratio > 0 && ratio <= 1 {
			d.triggerRatio = ratio
		}
	}
}
