package service

import "errors"

// Sentinel kinds for service lifecycle errors.
var (
	ErrAlreadyStarted = errors.New("service already started")
	ErrNoFrameSource  = errors.New("no frame source configured")
	ErrNoEventLog     = errors.New("no event log configured")
)
