package actuator

import "errors"

// ErrUnavailable is returned when the GPIO pin cannot be claimed.
var ErrUnavailable = errors.New("actuator unavailable")
