package simulate

import (
	"context"
	"sync"
	"time"

	"github.com/okian/spraycam/internal/domain/model"
)

// MemoryClips records clip requests instead of encoding video.
type MemoryClips struct {
	mu        sync.Mutex
	clips     map[string]model.Clip
	discarded int
}

// NewMemoryClips creates an empty clip sink.
func NewMemoryClips() *MemoryClips {
	return &MemoryClips{clips: make(map[string]model.Clip)}
}

// Write stores the clip metadata keyed by event id.
func (m *MemoryClips) Write(_ context.Context, ev model.Event, frames []model.RawFrame, fps int) (model.Clip, error) {
	if len(frames) == 0 {
		return model.Clip{}, ErrVerification
	}
	clip := model.Clip{Path: "memory://" + ev.ID, Frames: len(frames), FPS: fps, CreatedAt: time.Now()}
	m.mu.Lock()
	m.clips[ev.ID] = clip
	m.mu.Unlock()
	return clip, nil
}

// Discard counts the removal.
func (m *MemoryClips) Discard(model.Clip) error {
	m.mu.Lock()
	m.discarded++
	m.mu.Unlock()
	return nil
}

// Clips returns a copy of the written clips keyed by event id.
func (m *MemoryClips) Clips() map[string]model.Clip {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]model.Clip, len(m.clips))
	for k, v := range m.clips {
		out[k] = v
	}
	return out
}

// MemoryNotifier counts deliveries.
type MemoryNotifier struct {
	mu        sync.Mutex
	delivered []string
}

// Deliver records the event id and reports success.
func (n *MemoryNotifier) Deliver(_ context.Context, ev model.Event, _ model.Clip) bool {
	n.mu.Lock()
	n.delivered = append(n.delivered, ev.ID)
	n.mu.Unlock()
	return true
}

// Count returns the number of deliveries.
func (n *MemoryNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.delivered)
}
