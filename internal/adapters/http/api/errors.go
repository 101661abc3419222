package api

import "errors"

var (
	// ErrBadRequest wraps query and path validation failures.
	ErrBadRequest = errors.New("bad request")
	// ErrNoEventLog is answered with 503 on the event routes when the service
	// runs without an event log.
	ErrNoEventLog = errors.New("event log not configured")
)
