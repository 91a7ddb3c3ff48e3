// Package worker runs queued training jobs one at a time.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/matchodds/internal/adapters/mq/queue"
	"github.com/okian/matchodds/internal/domain/model"
	"github.com/okian/matchodds/pkg/logger"
	"github.com/okian/matchodds/pkg/metrics"
)

// Job is what workers read off the queue.
type Job = queue.Job

// Trainer fits and activates a model for a job, returning the new model ID.
type Trainer interface {
	Train(ctx context.Context, job Job) (string, error)
}

// Reporter receives job state changes.
type Reporter interface {
	Report(ctx context.Context, status model.JobStatus)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

type nopReporter struct{}

func (nopReporter) Report(context.Context, model.JobStatus) {}

// InMemoryWorker processes training jobs sequentially so that two fits
// never race to replace the active model.
type InMemoryWorker struct {
	queue    Queue
	trainer  Trainer
	reporter Reporter
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, trainer Trainer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		trainer:  trainer,
		reporter: nopReporter{},
		name:     "trainer",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "trainer" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run consumes jobs until ctx is cancelled, Shutdown is called or the queue closes.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "training job failed", logger.String("job_id", job.ID), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker after the job in progress, if any.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
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

func (w *InMemoryWorker) process(ctx context.Context, job Job) error {
	start := time.Now()
	w.reporter.Report(ctx, model.JobStatus{Job: job, State: model.JobRunning})
	w.logger.Info(ctx, "training job started", logger.String("job_id", job.ID), logger.String("reason", job.Reason))

	modelID, err := w.trainer.Train(ctx, job)
	finished := time.Now().UTC()
	metrics.RecordTrainingJob(float64(time.Since(start).Milliseconds()), err != nil)

	if err != nil {
		metrics.RecordErrorByType("training_failed", "high")
		w.reporter.Report(ctx, model.JobStatus{Job: job, State: model.JobFailed, Error: err.Error(), FinishedAt: &finished})
		return fmt.Errorf("job %s: %w", job.ID, err)
	}

	w.reporter.Report(ctx, model.JobStatus{Job: job, State: model.JobSucceeded, ModelID: modelID, FinishedAt: &finished})
	w.logger.Info(ctx, "training job finished",
		logger.String("job_id", job.ID),
		logger.String("model_id", modelID),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}
