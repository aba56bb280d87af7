package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/udrf/internal/adapters/mq/queue"
	worker "github.com/okian/udrf/internal/adapters/mq/worker"
	model "github.com/okian/udrf/internal/domain/model"
	logging "github.com/okian/udrf/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logging.Init()
}

type mockQueue struct {
	jobs chan model.RecomputeJob
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan model.RecomputeJob, 10)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan model.RecomputeJob {
	return mq.jobs
}

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

type mockRecomputer struct {
	mu     sync.Mutex
	done   map[string]int
	errors map[string]error
	delay  time.Duration
}

func newMockRecomputer() *mockRecomputer {
	return &mockRecomputer{done: make(map[string]int), errors: make(map[string]error)}
}

func (m *mockRecomputer) Recompute(ctx context.Context, job model.RecomputeJob) error {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.errors[job.DepartmentID]; ok {
		return err
	}
	m.done[job.DepartmentID]++
	return nil
}

func (m *mockRecomputer) count(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done[id]
}

func (m *mockRecomputer) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.done {
		n += c
	}
	return n
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a new InMemoryWorker", t, func() {
		q := newMockQueue()
		r := newMockRecomputer()
		w := worker.NewInMemoryWorker(q, r, worker.WithName("test"), worker.WithLogger(logging.Get()))
		convey.So(w, convey.ShouldNotBeNil)

		convey.Convey("When running a worker", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go w.Run(ctx)

			convey.Convey("And jobs arrive", func() {
				q.jobs <- model.RecomputeJob{DepartmentID: "cs", AcademicYear: "2024-25"}
				q.jobs <- model.RecomputeJob{DepartmentID: "me", AcademicYear: "2024-25"}

				convey.Convey("Then each department is recomputed", func() {
					convey.So(waitFor(func() bool { return r.total() == 2 }), convey.ShouldBeTrue)
					convey.So(r.count("cs"), convey.ShouldEqual, 1)
				})
			})

			convey.Convey("And a recompute fails", func() {
				r.errors["bad"] = errors.New("provider down")
				q.jobs <- model.RecomputeJob{DepartmentID: "bad"}
				q.jobs <- model.RecomputeJob{DepartmentID: "cs"}

				convey.Convey("Then the worker keeps going", func() {
					convey.So(waitFor(func() bool { return r.count("cs") == 1 }), convey.ShouldBeTrue)
					convey.So(r.count("bad"), convey.ShouldEqual, 0)
				})
			})

			convey.Convey("And when shutting down", func() {
				shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
				defer done()
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			finished := make(chan struct{})
			go func() {
				w.Run(ctx)
				close(finished)
			}()
			cancel()

			convey.Convey("Then the worker stops", func() {
				select {
				case <-finished:
				case <-time.After(time.Second):
					convey.So("worker did not stop", convey.ShouldBeEmpty)
				}
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool over a real queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		r := newMockRecomputer()

		convey.Convey("When creating a pool with the default count", func() {
			p := worker.NewPool(0, q, r)
			convey.So(p.Size(), convey.ShouldBeGreaterThan, 0)
		})

		convey.Convey("When the pool processes many jobs", func() {
			p := worker.NewPool(4, q, r, worker.WithLogger(logging.Get()))
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			p.Start(ctx)

			for i := 0; i < 40; i++ {
				convey.So(q.Enqueue(ctx, model.RecomputeJob{DepartmentID: fmt.Sprintf("d%d", i), AcademicYear: "2024-25"}), convey.ShouldBeNil)
			}

			convey.Convey("Then every job is processed once", func() {
				convey.So(waitFor(func() bool { return r.total() == 40 }), convey.ShouldBeTrue)
				convey.So(r.count("d7"), convey.ShouldEqual, 1)
			})

			convey.Convey("And shutdown drains the queue", func() {
				convey.So(p.Shutdown(context.Background()), convey.ShouldBeNil)
				convey.So(r.total(), convey.ShouldEqual, 40)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
				convey.So(p.Active(), convey.ShouldEqual, 0)
			})
		})
	})
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
