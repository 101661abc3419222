package camera

import (
	"time"

	"github.com/okian/spraycam/pkg/logger"
)

// ClipOption configures a ClipWriter.
type ClipOption func(*ClipWriter)

// WithCodec sets the OpenCV fourcc and file extension.
func WithCodec(fourcc, ext string) ClipOption {
	return func(w *ClipWriter) {
		if len(fourcc) == 4 {
			w.codec = fourcc
		}
		if ext != "" {
			w.ext = ext
		}
	}
}

// WithDownscale toggles halving the frame size.
func WithDownscale(on bool) ClipOption {
	return func(w *ClipWriter) { w.downscale = on }
}

// WithTranscode toggles the ffmpeg pass; path is the ffmpeg binary.
func WithTranscode(on bool, path string) ClipOption {
	return func(w *ClipWriter) {
		w.transcode = on
		if path != "" {
			w.ffmpeg = path
		}
	}
}

// WithClock sets the time source used for clip names.
func WithClock(now func() time.Time) ClipOption {
	return func(w *ClipWriter) {
		if now != nil {
			w.now = now
		}
	}
}

// WithClipLogger sets the writer logger.
func WithClipLogger(l logger.Logger) ClipOption {
	return func(w *ClipWriter) {
		if l != nil {
			w.log = l
		}
	}
}
