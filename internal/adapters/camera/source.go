// Package camera acquires frames, classifies them and writes event clips.
package camera

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/okian/spraycam/internal/domain/model"
)

// Reader yields raw BGR frames from a device.
type Reader interface {
	Read(ctx context.Context) (model.RawFrame, error)
	Close() error
}

// Classifier decides whether the target is in a frame.
type Classifier interface {
	Classify(ctx context.Context, raw model.RawFrame) (bool, float64, error)
}

// Source pairs each raw frame with its presence decision.
type Source struct {
	reader     Reader
	classifier Classifier
	now        func() time.Time
}

// NewSource creates a frame source.
func NewSource(reader Reader, classifier Classifier) *Source {
	return &Source{reader: reader, classifier: classifier, now: time.Now}
}

// NextFrame reads and classifies one frame. Any failure wraps
// ErrFrameUnavailable so the caller can skip the tick.
func (s *Source) NextFrame(ctx context.Context) (model.Frame, error) {
	raw, err := s.reader.Read(ctx)
	if err != nil {
		return model.Frame{}, fmt.Errorf("%w: read: %w", ErrFrameUnavailable, err)
	}
	if raw.Empty() {
		return model.Frame{}, fmt.Errorf("%w: empty frame", ErrFrameUnavailable)
	}
	present, score, err := s.classifier.Classify(ctx, raw)
	if err != nil {
		return model.Frame{}, fmt.Errorf("%w: classify: %w", ErrFrameUnavailable, err)
	}
	return model.Frame{Raw: raw, Present: present, Score: score, CapturedAt: s.now()}, nil
}

// Close releases the device, and the classifier when it holds resources.
func (s *Source) Close() error {
	err := s.reader.Close()
	if c, ok := s.classifier.(io.Closer); ok {
		err = errors.Join(err, c.Close())
	}
	return err
}
