// Package worker runs the single audit writer. All appends go through one
// goroutine, so the store sees them strictly one at a time and in queue
// order.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/netrisk/internal/adapters/mq/queue"
	"github.com/okian/netrisk/internal/domain/model"
	"github.com/okian/netrisk/pkg/logger"
	"github.com/okian/netrisk/pkg/metrics"
)

const (
	defaultAppendTimeout  = 5 * time.Second
	metricsUpdateInterval = 5 * time.Second
)

// Store is where the writer appends records.
type Store interface {
	Append(ctx context.Context, rec model.AuditRecord) (model.AuditRecord, error)
}

// Queue defines how the writer receives jobs.
type Queue interface {
	Enqueue(ctx context.Context, j *queue.Job) error
	Dequeue() <-chan *queue.Job
	Len() int
	Close() error
}

// Writer drains the queue into the store.
type Writer struct {
	queue         Queue
	store         Store
	name          string
	appendTimeout time.Duration

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewWriter creates a writer. Call Run to start it.
func NewWriter(q Queue, store Store, opts ...Option) *Writer {
	w := &Writer{
		queue:         q,
		store:         store,
		name:          "audit-writer",
		appendTimeout: defaultAppendTimeout,
		shutdown:      make(chan struct{}),
		done:          make(chan struct{}),
		logger:        logger.Get().Named("audit-writer"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Append submits rec and waits for the writer to store it. It never blocks
// on a full queue; it fails with queue.ErrBackpressure instead.
//
// When ctx ends while the job is still queued, the job is withdrawn and
// never written. Once the writer has picked it up, Append waits for the
// store's answer, which the append timeout bounds.
func (w *Writer) Append(ctx context.Context, rec model.AuditRecord) (model.AuditRecord, error) {
	job := queue.NewJob(rec)
	if err := w.queue.Enqueue(ctx, job); err != nil {
		return rec, err
	}
	select {
	case res := <-job.Done():
		return res.Record, res.Err
	case <-ctx.Done():
		if job.Abandon() {
			return rec, ctx.Err()
		}
		res := <-job.Done()
		return res.Record, res.Err
	}
}

// Run processes jobs until the queue is closed. After ctx is cancelled or
// Shutdown is called, the jobs already queued are still written.
func (w *Writer) Run(ctx context.Context) {
	defer close(w.done)
	metrics.UpdateWriterCount(1)
	defer metrics.UpdateWriterCount(0)

	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	jobs := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			w.drain(ctx)
			return
		case <-w.shutdown:
			w.drain(ctx)
			return
		case <-ticker.C:
			metrics.UpdateQueueSize(w.queue.Len())
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		}
	}
}

// drain closes the queue and writes whatever is left in it.
func (w *Writer) drain(ctx context.Context) {
	if err := w.queue.Close(); err != nil {
		w.logger.Error(ctx, "error closing queue", logger.Error(err))
	}
	n := 0
	for job := range w.queue.Dequeue() {
		w.process(ctx, job)
		n++
	}
	if n > 0 {
		w.logger.Info(ctx, "drained audit queue", logger.Int("jobs", n))
	}
}

func (w *Writer) process(ctx context.Context, job *queue.Job) {
	if !job.Claim() {
		metrics.RecordAuditAppend("abandoned", 0)
		w.logger.Debug(ctx, "skipping abandoned audit job", logger.String("record_id", job.Record.ID))
		return
	}
	start := time.Now()
	appendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.appendTimeout)
	defer cancel()

	rec, err := w.store.Append(appendCtx, job.Record)
	ms := float64(time.Since(start).Microseconds()) / 1000
	if err != nil {
		metrics.RecordAuditAppend("error", ms)
		metrics.RecordErrorByComponent("audit", "append_error")
		w.logger.Error(ctx, "audit append failed",
			logger.String("record_id", job.Record.ID),
			logger.Error(err),
		)
		err = fmt.Errorf("append %s: %w", job.Record.ID, err)
	} else {
		metrics.RecordAuditAppend("ok", ms)
	}
	if !job.Enqueued.IsZero() {
		metrics.RecordWriterJobLatency(float64(time.Since(job.Enqueued).Microseconds()) / 1000)
	}
	job.Complete(rec, err)
}

// Shutdown stops the writer after the queued jobs are written.
func (w *Writer) Shutdown(ctx context.Context) error {
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
