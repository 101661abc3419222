package classifier

import "github.com/okian/spraycam/pkg/logger"

const (
	defaultTargetClass   = 16
	defaultMinConfidence = 0.65
	defaultThreads       = 2
)

type options struct {
	target  int
	minConf float64
	threads int
	log     logger.Logger
}

// Option configures the classifier.
type Option func(*options)

// WithTargetClass sets the output class index that counts as present.
func WithTargetClass(idx int) Option {
	return func(o *options) {
		if idx >= 0 {
			o.target = idx
		}
	}
}

// WithMinConfidence sets the score a detection must exceed.
func WithMinConfidence(c float64) Option {
	return func(o *options) {
		if c >= 0 && c < 1 {
			o.minConf = c
		}
	}
}

// WithThreads sets the interpreter thread count.
func WithThreads(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.threads = n
		}
	}
}

// WithLogger sets the classifier logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}
