package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func record(id string) Record {
	return Record{EventID: id, StartedAt: time.Now(), Rate: 4, CaptureDelay: 40}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, record("ev-1")) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	r := <-q.Dequeue(ctx)
	if r.EventID != "ev-1" {
		t.Errorf("expected ev-1, got %v", r.EventID)
	}
	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	_ = q.Close()
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, record("ev-1")) || !q.Enqueue(ctx, record("ev-2")) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, record("ev-3")) {
		t.Error("expected enqueue to fail when full")
	}
	if l := q.Len(); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
	if c := q.Capacity(); c != 2 {
		t.Errorf("expected capacity 2, got %d", c)
	}
}

func TestInMemoryQueue_DefaultCapacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(0))
	if c := q.Capacity(); c != defaultQueueCapacity {
		t.Errorf("expected default capacity %d, got %d", defaultQueueCapacity, c)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// select picks randomly between a free slot and ctx.Done, so fill the queue first.
	_ = q.Enqueue(context.Background(), record("fill"))
	if q.Enqueue(ctx, record("ev-1")) {
		t.Error("expected enqueue to fail with a full queue and cancelled context")
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(16))
	ctx := context.Background()
	const producers, perProducer = 4, 50

	var seen sync.Map
	var consumers sync.WaitGroup
	for range 2 {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for r := range q.Dequeue(ctx) {
				seen.Store(r.EventID, true)
			}
		}()
	}

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := range perProducer {
				for !q.Enqueue(ctx, record(fmt.Sprintf("ev-%d-%d", id, j))) {
					time.Sleep(time.Millisecond)
				}
			}
		}(p)
	}
	wg.Wait()
	_ = q.Close()
	consumers.Wait()

	n := 0
	seen.Range(func(_, _ any) bool { n++; return true })
	if n != producers*perProducer {
		t.Errorf("expected %d records, got %d", producers*perProducer, n)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()

	_ = q.Enqueue(ctx, record("ev-1"))
	_ = q.Enqueue(ctx, record("ev-2"))

	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
	if q.Enqueue(ctx, record("ev-3")) {
		t.Error("expected enqueue after close to fail")
	}

	var got []string
	for r := range q.Dequeue(ctx) {
		got = append(got, r.EventID)
	}
	if len(got) != 2 || got[0] != "ev-1" || got[1] != "ev-2" {
		t.Errorf("expected queued records to drain in order, got %v", got)
	}
}
