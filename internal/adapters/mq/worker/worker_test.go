package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/rivalry/internal/adapters/mq/queue"
	"github.com/okian/rivalry/internal/adapters/mq/worker"
	logging "github.com/okian/rivalry/pkg/logger"
)

type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 16)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Job { return mq.jobs }

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

type recordingHandler struct {
	mu   sync.Mutex
	seen []string
	fail map[string]error
}

func (h *recordingHandler) Handle(_ context.Context, j queue.Job) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, j.ID)
	if j.ID == "boom" {
		panic("handler exploded")
	}
	return h.fail[j.ID]
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen)
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return false
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		q := newMockQueue()
		h := &recordingHandler{fail: map[string]error{"bad": errors.New("audit failed")}}
		w := worker.NewInMemoryWorker(q, h, worker.WithName("test-worker"), worker.WithLogger(logging.Nop()))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When jobs succeed, fail and panic", func() {
			q.jobs <- queue.Job{ID: "ok", Kind: queue.KindAudit}
			q.jobs <- queue.Job{ID: "bad", Kind: queue.KindAudit}
			q.jobs <- queue.Job{ID: "boom", Kind: queue.KindAudit}
			q.jobs <- queue.Job{ID: "after", Kind: queue.KindAudit}

			convey.Convey("Then every job is handled and failures are counted", func() {
				convey.So(waitFor(func() bool { total, _ := w.Processed(); return total == 4 }), convey.ShouldBeTrue)
				_, failed := w.Processed()
				convey.So(failed, convey.ShouldEqual, 2)
				convey.So(h.count(), convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When shut down", func() {
			err := w.Shutdown(context.Background())

			convey.Convey("Then it stops cleanly", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})
}

func TestWorkerStopsWhenQueueCloses(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		q := newMockQueue()
		w := worker.NewInMemoryWorker(q, worker.HandlerFunc(func(context.Context, queue.Job) error { return nil }),
			worker.WithLogger(logging.Nop()))
		done := make(chan struct{})
		go func() { w.Run(context.Background()); close(done) }()

		convey.Convey("When the queue closes", func() {
			_ = q.Close()

			convey.Convey("Then Run returns", func() {
				select {
				case <-done:
				case <-time.After(time.Second):
					t.Fatal("worker did not stop")
				}
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool over a real in-memory queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		h := &recordingHandler{}
		pool := worker.NewPool(3, q, h, worker.WithLogger(logging.Nop()))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.Convey("When jobs are enqueued", func() {
			for _, id := range []string{"a", "b", "c", "d", "e"} {
				convey.So(q.Enqueue(ctx, queue.Job{ID: id, Kind: queue.KindAudit}), convey.ShouldBeNil)
			}

			convey.Convey("Then the pool drains them and shuts down", func() {
				convey.So(pool.Size(), convey.ShouldEqual, 3)
				convey.So(waitFor(func() bool { return h.count() == 5 }), convey.ShouldBeTrue)
				convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
				total, failed := pool.Processed()
				convey.So(total, convey.ShouldEqual, 5)
				convey.So(failed, convey.ShouldEqual, 0)
			})
		})
	})
}
