package actuator

import (
	"context"
	"sync/atomic"

	"github.com/okian/spraycam/internal/domain/model"
	"github.com/okian/spraycam/pkg/logger"
)

// Mock stands in for the sprayer in demo mode. It logs and waits out the pattern.
type Mock struct {
	activations atomic.Int64
	log         logger.Logger
}

// NewMock creates a demo actuator.
func NewMock(opts ...Option) *Mock {
	return &Mock{log: applyOptions(opts).log}
}

// Activate logs the spray and waits for the pattern duration.
func (m *Mock) Activate(ctx context.Context, p model.SprayPattern) error {
	m.activations.Add(1)
	m.log.Info(ctx, "spraying cat", logger.Duration("duration", p.Total()))
	if err := sleep(ctx, p.Total()); err != nil {
		return err
	}
	m.log.Info(ctx, "cat has been tamed")
	return nil
}

// SafeState is a no-op.
func (m *Mock) SafeState() error { return nil }

// Activations returns how many patterns were started.
func (m *Mock) Activations() int64 { return m.activations.Load() }
