// Package telemetry forwards background task failures to Sentry.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// Reporter sends errors to Sentry. The zero value and a Reporter built
// without a DSN drop everything.
type Reporter struct {
	enabled bool
}

// Option customizes the Sentry client options.
type Option func(*sentry.ClientOptions)

// WithTransport replaces the HTTP transport, e.g. with an in-memory one.
func WithTransport(t sentry.Transport) Option {
	return func(o *sentry.ClientOptions) {
		o.Transport = t
	}
}

// WithEnvironment sets the Sentry environment tag.
func WithEnvironment(env string) Option {
	return func(o *sentry.ClientOptions) {
		if env != "" {
			o.Environment = env
		}
	}
}

// Init initializes the Sentry SDK. An empty dsn returns a disabled Reporter
// unless a transport is supplied.
func Init(dsn, release string, opts ...Option) (*Reporter, error) {
	o := sentry.ClientOptions{
		Dsn:              dsn,
		SampleRate:       1.0,
		AttachStacktrace: true,
		Environment:      "production",
		Release:          "spraycam@" + release,
		ServerName:       "",
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Dsn == "" && o.Transport == nil {
		return &Reporter{}, nil
	}
	if err := sentry.Init(o); err != nil {
		return nil, fmt.Errorf("sentry initialization failed: %w", err)
	}
	return &Reporter{enabled: true}, nil
}

// Enabled reports whether errors are forwarded.
func (r *Reporter) Enabled() bool { return r != nil && r.enabled }

// Report captures err tagged with the component that produced it.
func (r *Reporter) Report(_ context.Context, component string, err error) {
	if !r.Enabled() || err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		scope.SetTag("component", component)
		scope.SetFingerprint([]string{component, fmt.Sprintf("%T", err)})
		sentry.CaptureException(err)
	})
}

// Flush waits for buffered events to be sent.
func (r *Reporter) Flush(timeout time.Duration) bool {
	if !r.Enabled() {
		return true
	}
	return sentry.Flush(timeout)
}
