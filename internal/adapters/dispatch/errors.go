package dispatch

import "errors"

// Sentinel errors for dispatcher tasks.
var (
	ErrTaskPanic       = errors.New("task panicked")
	ErrShutdownTimeout = errors.New("in-flight tasks did not finish before shutdown deadline")
)
