package classifier

import "errors"

var (
	// ErrModelLoad is returned when the model cannot be loaded.
	ErrModelLoad = errors.New("classifier: model load failed")
	// ErrEmptyFrame is returned for frames without usable pixel data.
	ErrEmptyFrame = errors.New("classifier: empty frame")
	// ErrInference wraps interpreter failures.
	ErrInference = errors.New("classifier: inference failed")
)
