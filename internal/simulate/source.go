package simulate

import (
	"context"
	"sync"
	"time"

	"github.com/okian/spraycam/internal/domain/model"
)

// Observed is the wall-clock extent of one emitted visit.
type Observed struct {
	Start time.Time
	End   time.Time
}

// ScriptedSource replays a Script at a fixed pace. It implements the frame
// source the control loop reads from.
type ScriptedSource struct {
	script   Script
	interval time.Duration
	raw      model.RawFrame

	mu       sync.Mutex
	next     int
	last     time.Time
	observed []Observed
	done     chan struct{}
	doneOnce sync.Once
}

// NewScriptedSource creates a source emitting fps frames per second.
func NewScriptedSource(script Script, fps float64) *ScriptedSource {
	return &ScriptedSource{
		script:   script,
		interval: time.Duration(float64(time.Second) / fps),
		raw:      model.RawFrame{Width: 2, Height: 2, Data: make([]byte, 2*2*3)},
		observed: make([]Observed, len(script.Spans)),
		done:     make(chan struct{}),
	}
}

// NextFrame waits for the next frame slot and returns the scripted frame.
// After the last frame it returns ErrScriptDone.
func (s *ScriptedSource) NextFrame(ctx context.Context) (model.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next >= s.script.Frames {
		s.doneOnce.Do(func() { close(s.done) })
		return model.Frame{}, ErrScriptDone
	}

	if !s.last.IsZero() {
		if wait := time.Until(s.last.Add(s.interval)); wait > 0 {
			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return model.Frame{}, ctx.Err()
			case <-t.C:
			}
		}
	}
	now := time.Now()
	s.last = now

	i := s.next
	s.next++
	for k, sp := range s.script.Spans {
		if i == sp.Start {
			s.observed[k].Start = now
		}
		if i == sp.End-1 {
			s.observed[k].End = now
		}
	}
	return model.Frame{Raw: s.raw, Present: s.script.Present(i), Score: presenceScore(s.script.Present(i)), CapturedAt: now}, nil
}

// Done is closed once every scripted frame has been emitted.
func (s *ScriptedSource) Done() <-chan struct{} { return s.done }

// Emitted returns the number of frames handed out so far.
func (s *ScriptedSource) Emitted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Observed returns the wall-clock extent of each visit.
func (s *ScriptedSource) Observed() []Observed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Observed(nil), s.observed...)
}

// Close is a no-op.
func (s *ScriptedSource) Close() error { return nil }

func presenceScore(present bool) float64 {
	if present {
		return 0.9
	}
	return 0
}
