package repository

import "errors"

// Sentinel kinds for event log errors.
var (
	ErrNotFound     = errors.New("event not found")
	ErrInvalidLimit = errors.New("invalid limit")
	ErrInvalidRange = errors.New("invalid day range")
	ErrClosed       = errors.New("event log closed")
)
