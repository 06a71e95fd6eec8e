package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/netrisk/internal/domain/model"
)

func job(i int) *Job {
	return NewJob(model.AuditRecord{ID: fmt.Sprintf("rec-%d", i), CreatedAt: time.Now()})
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if err := q.Enqueue(ctx, job(1)); err != nil {
		t.Fatalf("expected enqueue to succeed: %v", err)
	}
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	j := <-q.Dequeue()
	if j.Record.ID != "rec-1" {
		t.Errorf("expected rec-1, got %v", j.Record.ID)
	}
	if j.Enqueued.IsZero() {
		t.Error("expected enqueue time to be stamped")
	}
	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Backpressure(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	_ = q.Enqueue(ctx, job(1))
	_ = q.Enqueue(ctx, job(2))
	if err := q.Enqueue(ctx, job(3)); !errors.Is(err, ErrBackpressure) {
		t.Errorf("expected ErrBackpressure when full, got %v", err)
	}
	if l := q.Len(); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Enqueue(ctx, job(1)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()
	_ = q.Enqueue(ctx, job(1))

	if err := q.Close(); err != nil {
		t.Fatal(err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if err := q.Enqueue(ctx, job(2)); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped after close, got %v", err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}

	var drained []string
	for j := range q.Dequeue() {
		drained = append(drained, j.Record.ID)
	}
	if len(drained) != 1 || drained[0] != "rec-1" {
		t.Errorf("expected queued job to survive close, got %v", drained)
	}
}

func TestJob_CompleteOnce(t *testing.T) {
	j := job(1)
	j.Complete(model.AuditRecord{ID: "first"}, nil)
	j.Complete(model.AuditRecord{ID: "second"}, errors.New("ignored"))

	res := <-j.Done()
	if res.Record.ID != "first" || res.Err != nil {
		t.Errorf("unexpected result %+v", res)
	}
	select {
	case <-j.Done():
		t.Error("expected a single result")
	default:
	}
}

func TestJob_ClaimOrAbandon(t *testing.T) {
	claimed := job(1)
	if !claimed.Claim() {
		t.Fatal("expected a pending job to be claimable")
	}
	if claimed.Abandon() {
		t.Error("expected a claimed job to refuse abandonment")
	}

	abandoned := job(2)
	if !abandoned.Abandon() {
		t.Fatal("expected a pending job to be abandonable")
	}
	if abandoned.Claim() {
		t.Error("expected an abandoned job to refuse the writer")
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1000))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for n := 0; n < 100; n++ {
				if err := q.Enqueue(ctx, job(id*100+n)); err != nil {
					t.Errorf("enqueue: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()
	_ = q.Close()

	seen := 0
	for range q.Dequeue() {
		seen++
	}
	if seen != 1000 {
		t.Errorf("expected 1000 jobs, got %d", seen)
	}
}
