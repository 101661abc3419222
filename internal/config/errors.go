package config

import "errors"

var (
	// ErrLoadConfig wraps failures reading the file or the environment.
	ErrLoadConfig = errors.New("load config failed")
	// ErrInvalidConfig wraps every range check done by Validate.
	ErrInvalidConfig = errors.New("invalid config")
)
