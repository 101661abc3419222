package actuator

import "github.com/okian/spraycam/pkg/logger"

type options struct {
	log logger.Logger
}

// Option configures an actuator.
type Option func(*options)

// WithLogger sets the actuator logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get().Named("actuator")
	}
	return o
}
