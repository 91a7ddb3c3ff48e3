package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	worker "github.com/okian/matchodds/internal/adapters/mq/worker"
	model "github.com/okian/matchodds/internal/domain/model"
	logging "github.com/okian/matchodds/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	jobs chan worker.Job
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan worker.Job, 10)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan worker.Job {
	return mq.jobs
}

type mockTrainer struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (mt *mockTrainer) Train(ctx context.Context, job worker.Job) (string, error) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.calls = append(mt.calls, job.ID)
	if err, ok := mt.fail[job.ID]; ok {
		return "", err
	}
	return "model-" + job.ID, nil
}

type recorder struct {
	mu       sync.Mutex
	statuses []model.JobStatus
}

func (r *recorder) Report(ctx context.Context, s model.JobStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *recorder) snapshot() []model.JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.JobStatus(nil), r.statuses...)
}

func init() {
	if err := logging.Init(); err != nil {
		panic(err)
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker with a trainer and a reporter", t, func() {
		q := newMockQueue()
		trainer := &mockTrainer{fail: map[string]error{"bad": errors.New("boom")}}
		rec := &recorder{}
		w := worker.NewInMemoryWorker(q, trainer, worker.WithName("trainer-1"), worker.WithReporter(rec))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job succeeds", func() {
			q.jobs <- model.TrainingJob{ID: "good"}
			close(q.jobs)
			<-w.Done()

			convey.Convey("Then running and succeeded are reported with the model ID", func() {
				statuses := rec.snapshot()
				convey.So(statuses, convey.ShouldHaveLength, 2)
				convey.So(statuses[0].State, convey.ShouldEqual, model.JobRunning)
				convey.So(statuses[1].State, convey.ShouldEqual, model.JobSucceeded)
				convey.So(statuses[1].ModelID, convey.ShouldEqual, "model-good")
				convey.So(statuses[1].FinishedAt, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When a job fails", func() {
			q.jobs <- model.TrainingJob{ID: "bad"}
			q.jobs <- model.TrainingJob{ID: "after"}
			close(q.jobs)
			<-w.Done()

			convey.Convey("Then the failure is reported and later jobs still run", func() {
				statuses := rec.snapshot()
				convey.So(statuses, convey.ShouldHaveLength, 4)
				convey.So(statuses[1].State, convey.ShouldEqual, model.JobFailed)
				convey.So(statuses[1].Error, convey.ShouldContainSubstring, "boom")
				convey.So(statuses[3].State, convey.ShouldEqual, model.JobSucceeded)
				convey.So(trainer.calls, convey.ShouldResemble, []string{"bad", "after"})
			})
		})
	})

	convey.Convey("Given a running worker", t, func() {
		w := worker.NewInMemoryWorker(newMockQueue(), &mockTrainer{})
		go w.Run(context.Background())

		convey.Convey("Shutdown returns once the loop exits", func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			convey.So(w.Shutdown(ctx), convey.ShouldBeNil)
		})
	})
}
