// Package worker drains event records from the queue into the event log and
// the optional event publisher.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/spraycam/internal/domain/model"
	"github.com/okian/spraycam/pkg/logger"
	"github.com/okian/spraycam/pkg/metrics"
)

const (
	defaultDrainTimeout   = 30 * time.Second
	defaultPublishTimeout = 5 * time.Second
)

// Record abstracts what workers read off the queue.
type Record = model.EventRecord

// Store persists event records.
type Store interface {
	Record(ctx context.Context, rec model.EventRecord) error
}

// Publisher announces event records to other systems.
type Publisher interface {
	Publish(ctx context.Context, rec model.EventRecord) error
}

// Queue defines how workers receive records.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Record
}

// Worker processes records until the queue is drained or it is stopped.
type Worker interface {
	// Run starts the worker loop until the queue is closed and drained, ctx is
	// canceled or Shutdown is called.
	Run(ctx context.Context)

	// Shutdown stops the worker without waiting for the queue to drain.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue     Queue
	store     Store
	publisher Publisher
	name      string

	publishTimeout time.Duration
	drainTimeout   time.Duration

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
// publisher may be nil.
func NewInMemoryWorker(queue Queue, store Store, publisher Publisher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		store:     store,
		publisher: publisher,
		name:      "worker",

		publishTimeout: defaultPublishTimeout,
		drainTimeout:   defaultDrainTimeout,

		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	records := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case rec, ok := <-records:
			if !ok {
				return
			}
			if err := w.process(ctx, rec); err != nil {
				w.logger.Error(ctx, "error processing event record", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

// process stores a record and then publishes it. A store failure does not
// prevent publishing.
func (w *InMemoryWorker) process(ctx context.Context, rec Record) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	var storeErr error
	if err := w.store.Record(ctx, rec); err != nil {
		metrics.RecordEventRecord("failed")
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		storeErr = fmt.Errorf("store event %s: %w", rec.EventID, err)
	} else {
		metrics.RecordEventRecord("stored")
		w.logger.Debug(ctx, "event recorded", logger.String("event_id", rec.EventID))
	}

	if w.publisher == nil {
		return storeErr
	}
	pctx, cancel := context.WithTimeout(ctx, w.publishTimeout)
	defer cancel()
	if err := w.publisher.Publish(pctx, rec); err != nil {
		metrics.RecordEventRecord("publish_failed")
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "publish_error")
		w.logger.Warn(ctx, "event publish failed",
			logger.String("event_id", rec.EventID),
			logger.Error(err),
		)
		return storeErr
	}
	metrics.RecordEventRecord("published")
	return storeErr
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	logger logger.Logger
}

// NewPool creates a new worker pool. A workerCount below one starts a single
// worker, which keeps records in trigger order.
func NewPool(workerCount int, queue Queue, store Store, publisher Publisher, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(queue, store, publisher,
			append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)...)
	}
	pool.logger = pool.workers[0].logger

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Shutdown closes the queue and lets the workers drain it. Workers still
// running when ctx (or the pool timeout) expires are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	drainCtx, cancel := context.WithTimeout(ctx, p.workers[0].drainTimeout)
	defer cancel()

	var timedOut bool
	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-drainCtx.Done():
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			timedOut = true
			_ = worker.Shutdown(context.Background())
		}
	}
	metrics.UpdateWorkerActiveCount(0)

	if timedOut {
		return fmt.Errorf("worker pool drain: %w", drainCtx.Err())
	}
	return nil
}
