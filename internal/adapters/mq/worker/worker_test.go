package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/netrisk/internal/adapters/mq/queue"
	"github.com/okian/netrisk/internal/adapters/mq/worker"
	"github.com/okian/netrisk/internal/domain/model"
	logging "github.com/okian/netrisk/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logging.Init()
}

// recordingStore tracks appends and flags overlapping calls.
type recordingStore struct {
	mu       sync.Mutex
	records  []model.AuditRecord
	inFlight int
	overlap  bool
	delay    time.Duration
	fail     map[string]error
}

func (s *recordingStore) Append(_ context.Context, rec model.AuditRecord) (model.AuditRecord, error) {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > 1 {
		s.overlap = true
	}
	s.mu.Unlock()

	time.Sleep(s.delay)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	if err := s.fail[rec.ID]; err != nil {
		return rec, err
	}
	rec.Sequence = int64(len(s.records) + 1)
	s.records = append(s.records, rec)
	return rec, nil
}

func (s *recordingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func rec(i int) model.AuditRecord {
	return model.AuditRecord{ID: fmt.Sprintf("rec-%d", i), CreatedAt: time.Now()}
}

func TestWriter(t *testing.T) {
	convey.Convey("Given a running writer", t, func() {
		store := &recordingStore{delay: time.Millisecond, fail: map[string]error{}}
		q := queue.NewInMemoryQueue(queue.WithCapacity(128))
		w := worker.NewWriter(q, store, worker.WithName("test-writer"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When one record is appended", func() {
			stored, err := w.Append(ctx, rec(1))

			convey.Convey("Then the stored record is returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stored.Sequence, convey.ShouldEqual, 1)
				convey.So(store.count(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When 50 callers append concurrently", func() {
			var wg sync.WaitGroup
			errs := make(chan error, 50)
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					if _, err := w.Append(ctx, rec(i)); err != nil {
						errs <- err
					}
				}(i)
			}
			wg.Wait()
			close(errs)

			convey.Convey("Then all 50 are stored one at a time", func() {
				convey.So(len(errs), convey.ShouldEqual, 0)
				convey.So(store.count(), convey.ShouldEqual, 50)
				convey.So(store.overlap, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the store fails", func() {
			boom := errors.New("disk full")
			store.fail["rec-9"] = boom
			_, err := w.Append(ctx, rec(9))

			convey.Convey("Then the error reaches the caller", func() {
				convey.So(errors.Is(err, boom), convey.ShouldBeTrue)
				convey.So(store.count(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the writer is shut down", func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
			defer done()
			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)

			convey.Convey("Then further appends are refused", func() {
				_, err := w.Append(ctx, rec(2))
				convey.So(errors.Is(err, queue.ErrStopped), convey.ShouldBeTrue)
			})
		})
	})
}

func TestWriterBackpressure(t *testing.T) {
	convey.Convey("Given a full queue and no running writer", t, func() {
		store := &recordingStore{}
		q := queue.NewInMemoryQueue(queue.WithCapacity(1))
		w := worker.NewWriter(q, store)
		convey.So(q.Enqueue(context.Background(), queue.NewJob(rec(0))), convey.ShouldBeNil)

		convey.Convey("When a record is appended", func() {
			_, err := w.Append(context.Background(), rec(1))

			convey.Convey("Then it fails fast with backpressure", func() {
				convey.So(errors.Is(err, queue.ErrBackpressure), convey.ShouldBeTrue)
			})
		})
	})
}

func TestWriterDrainsOnShutdown(t *testing.T) {
	convey.Convey("Given jobs queued before the writer starts", t, func() {
		store := &recordingStore{fail: map[string]error{}}
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		jobs := make([]*queue.Job, 5)
		for i := range jobs {
			jobs[i] = queue.NewJob(rec(i))
			convey.So(q.Enqueue(context.Background(), jobs[i]), convey.ShouldBeNil)
		}

		w := worker.NewWriter(q, store)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		convey.Convey("When the writer runs with a cancelled context", func() {
			w.Run(ctx)

			convey.Convey("Then every queued job is still written and completed", func() {
				convey.So(store.count(), convey.ShouldEqual, 5)
				for _, j := range jobs {
					res := <-j.Done()
					convey.So(res.Err, convey.ShouldBeNil)
				}
			})
		})
	})
}

func TestWriterCallerDeadline(t *testing.T) {
	convey.Convey("Given a writer over a slow store", t, func() {
		store := &recordingStore{delay: 150 * time.Millisecond, fail: map[string]error{}}
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		w := worker.NewWriter(q, store)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a caller gives up while its job is still queued", func() {
			first := make(chan error, 1)
			go func() {
				_, err := w.Append(context.Background(), rec(1))
				first <- err
			}()
			time.Sleep(20 * time.Millisecond)

			short, done := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer done()
			_, err := w.Append(short, rec(2))

			convey.Convey("Then the withdrawn record is never written", func() {
				convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
				convey.So(<-first, convey.ShouldBeNil)

				shutdownCtx, stop := context.WithTimeout(context.Background(), time.Second)
				defer stop()
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
				convey.So(store.count(), convey.ShouldEqual, 1)
				convey.So(store.records[0].ID, convey.ShouldEqual, "rec-1")
			})
		})

		convey.Convey("When a caller's deadline passes after the writer took the job", func() {
			short, done := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer done()
			stored, err := w.Append(short, rec(3))

			convey.Convey("Then the caller gets the real outcome", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stored.Sequence, convey.ShouldEqual, 1)
				convey.So(store.count(), convey.ShouldEqual, 1)
			})
		})
	})
}
