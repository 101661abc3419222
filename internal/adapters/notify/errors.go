package notify

import "errors"

// Sentinel kinds for delivery errors.
var (
	ErrNoURLs         = errors.New("at least one notification URL is required")
	ErrNoAuth         = errors.New("sftp: no authentication method provided")
	ErrNotConnected   = errors.New("mqtt: not connected")
	ErrMQTTTimeout    = errors.New("mqtt: operation timed out")
)
