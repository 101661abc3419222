package camera

import "errors"

var (
	// ErrFrameUnavailable means no usable frame was produced this tick.
	ErrFrameUnavailable = errors.New("frame unavailable")
	// ErrCameraOpen is returned when the capture device cannot be opened.
	ErrCameraOpen = errors.New("camera: open failed")
	// ErrNoFrames is returned when a clip is requested without frames.
	ErrNoFrames = errors.New("clip: no frames")
	// ErrTranscode wraps ffmpeg failures.
	ErrTranscode = errors.New("clip: transcode failed")
)
