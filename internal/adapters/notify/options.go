package notify

import (
	"time"

	"github.com/okian/spraycam/pkg/logger"
)

const defaultFailureLogInterval = time.Minute

// Option applies a configuration option to the ClipNotifier.
type Option func(*ClipNotifier)

// WithTitle sets the message title.
func WithTitle(title string) Option {
	return func(n *ClipNotifier) {
		if title != "" {
			n.title = title
		}
	}
}

// WithText sets the message sent with the clip link.
func WithText(text string) Option {
	return func(n *ClipNotifier) {
		if text != "" {
			n.text = text
		}
	}
}

// WithFallbackText sets the message sent when the upload failed.
func WithFallbackText(text string) Option {
	return func(n *ClipNotifier) {
		if text != "" {
			n.fallback = text
		}
	}
}

// WithLogger sets the notifier logger.
func WithLogger(l logger.Logger) Option {
	return func(n *ClipNotifier) {
		if l != nil {
			n.log = l
		}
	}
}
