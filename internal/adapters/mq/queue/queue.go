// Package queue is the bounded hand-off between evaluations and the single
// audit writer. A full queue rejects instead of blocking the caller.
package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/netrisk/internal/domain/model"
	"github.com/okian/netrisk/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Result is the outcome of one append.
type Result struct {
	Record model.AuditRecord
	Err    error
}

// Job states.
const (
	jobPending int32 = iota
	jobClaimed
	jobAbandoned
)

// Job is one pending audit append. The writer completes it exactly once.
// A job is either claimed by the writer or abandoned by its caller, never
// both.
type Job struct {
	Record   model.AuditRecord
	Enqueued time.Time

	state atomic.Int32
	done  chan Result
	once  sync.Once
}

// NewJob wraps rec.
func NewJob(rec model.AuditRecord) *Job {
	return &Job{Record: rec, done: make(chan Result, 1)}
}

// Claim marks the job as taken by the writer. It fails if the caller has
// already abandoned it, in which case the record must not be written.
func (j *Job) Claim() bool {
	return j.state.CompareAndSwap(jobPending, jobClaimed)
}

// Abandon withdraws a job the writer has not claimed yet. It fails once the
// writer owns the job; the caller must then wait for Done.
func (j *Job) Abandon() bool {
	return j.state.CompareAndSwap(jobPending, jobAbandoned)
}

// Complete delivers the outcome. Later calls are ignored.
func (j *Job) Complete(rec model.AuditRecord, err error) {
	j.once.Do(func() {
		j.done <- Result{Record: rec, Err: err}
	})
}

// Done receives the outcome once the writer has handled the job.
func (j *Job) Done() <-chan Result { return j.done }

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job. It fails with ErrBackpressure when full and
	// ErrStopped after Close.
	Enqueue(ctx context.Context, j *Job) error

	// Dequeue returns the job channel. It is closed by Close after the
	// remaining jobs are received.
	Dequeue() <-chan *Job

	// Len returns the current number of queued jobs.
	Len() int

	// Close stops accepting jobs.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan *Job
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan *Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds j without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j *Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrStopped
	}

	j.Enqueued = time.Now()
	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.jobs))
		return nil
	default:
		metrics.RecordQueueRejected()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrBackpressure
	}
}

// Dequeue returns the job channel.
func (q *InMemoryQueue) Dequeue() <-chan *Job { return q.jobs }

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len() int {
	size := len(q.jobs)
	metrics.UpdateQueueSize(size)
	return size
}

// Close stops accepting jobs. Jobs already queued stay receivable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
