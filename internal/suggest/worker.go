package suggest

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// popTimeout bounds each blocking queue read so workers notice shutdown.
const popTimeout = 5 * time.Second

// Worker consumes the job queue and runs the pipeline. One attempt is
// retried once before the job is marked FAILURE; diary creation is
// idempotent per (user, date), so the retry can never double-write.
type Worker struct {
	store       *JobStore
	pipeline    *Pipeline
	concurrency int
	wg          sync.WaitGroup
}

// NewWorker creates a Worker with the given concurrency.
func NewWorker(store *JobStore, pipeline *Pipeline, concurrency int) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{store: store, pipeline: pipeline, concurrency: concurrency}
}

// Start launches the worker goroutines. They run until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.loop(ctx)
		}()
	}
	slog.Info("suggestion workers started", slog.Int("concurrency", w.concurrency))
}

// Wait blocks until all worker goroutines have exited.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		jobID, err := w.store.NextJob(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("reading suggestion queue failed", slog.Any("error", err))
			time.Sleep(time.Second)
			continue
		}
		if jobID == "" {
			continue
		}

		w.process(ctx, jobID)
	}
}

// process runs one job end to end. A panic in the pipeline fails the job
// instead of killing the worker.
func (w *Worker) process(ctx context.Context, jobID string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("suggestion pipeline panicked",
				slog.String("job_id", jobID),
				slog.Any("panic", r),
			)
			if _, err := w.store.Fail(ctx, jobID, "internal error while generating the diary"); err != nil {
				slog.Error("failing panicked job", slog.String("job_id", jobID), slog.Any("error", err))
			}
		}
	}()

	job, err := w.store.Get(ctx, jobID)
	if err != nil {
		slog.Warn("dequeued job no longer exists", slog.String("job_id", jobID), slog.Any("error", err))
		return
	}
	if job.Status != StatusPending {
		slog.Info("skipping job no longer pending",
			slog.String("job_id", jobID),
			slog.String("status", job.Status),
		)
		return
	}

	diaryID, err := w.pipeline.Run(ctx, job)
	if err != nil {
		slog.Warn("suggestion attempt failed, retrying once",
			slog.String("job_id", jobID),
			slog.Any("error", err),
		)
		diaryID, err = w.pipeline.Run(ctx, job)
	}

	if err != nil {
		slog.Error("suggestion job failed",
			slog.String("job_id", jobID),
			slog.Any("error", err),
		)
		if _, err := w.store.Fail(ctx, jobID, "diary generation failed"); err != nil {
			slog.Error("marking job failed", slog.String("job_id", jobID), slog.Any("error", err))
		}
		return
	}

	ok, err := w.store.Complete(ctx, jobID, diaryID)
	if err != nil {
		slog.Error("marking job complete", slog.String("job_id", jobID), slog.Any("error", err))
		return
	}
	if !ok {
		// Cancelled mid-flight. The diary exists; the job result stays
		// CANCELLED and the client can find the diary by date.
		slog.Info("job cancelled while running, diary kept",
			slog.String("job_id", jobID),
			slog.String("diary_id", diaryID),
		)
		return
	}

	slog.Info("suggestion job completed",
		slog.String("job_id", jobID),
		slog.String("diary_id", diaryID),
	)
}
