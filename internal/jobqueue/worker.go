package jobqueue

import (
	"context"
	"log/slog"
)

// JobFunc runs one submitted job to completion and returns its serialized
// EngineOutput payload, or an error if the job should terminate in the
// error state. It is supplied by cmd/server (deps.runJob, which calls the
// internal/pipeline runners) — jobqueue itself has no pipeline-stage
// knowledge.
type JobFunc func(ctx context.Context, jobID string) (payload string, err error)

// Worker launches one goroutine per submitted job; a buffered channel
// acting as a semaphore sized MAX_CONCURRENT_JOBS bounds how many of them
// run a job at once (§5).
// Grounded on the teacher's pipeline.go fire-and-forget goroutine pattern
// (the emotion-classification goroutine in runFullPipeline), generalized
// from a single best-effort side task to the primary bounded job runner.
type Worker struct {
	store *Store
	run   JobFunc
	sem   chan struct{}
}

// NewWorker builds a worker pool backed by store, running each job via fn,
// with at most maxConcurrent jobs in flight at once.
func NewWorker(store *Store, fn JobFunc, maxConcurrent int) *Worker {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &Worker{
		store: store,
		run:   fn,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

// Submit starts jobID processing in its own goroutine, which waits for a
// free pool slot before running. Returns immediately, without waiting for
// a slot, so the caller can send its "queued" response.
func (w *Worker) Submit(ctx context.Context, jobID string) {
	go func() {
		w.sem <- struct{}{}
		defer func() { <-w.sem }()
		w.process(ctx, jobID)
	}()
}

func (w *Worker) process(ctx context.Context, jobID string) {
	if err := w.store.SetProcessing(ctx, jobID); err != nil {
		slog.Error("job transition to processing failed", "job_id", jobID, "error", err)
		return
	}

	payload, err := w.run(ctx, jobID)
	if err != nil {
		slog.Error("job failed", "job_id", jobID, "error", err)
		if setErr := w.store.SetError(ctx, jobID, err.Error()); setErr != nil {
			slog.Error("job error transition failed", "job_id", jobID, "error", setErr)
		}
		return
	}

	if err := w.store.SetResult(ctx, jobID, payload); err != nil {
		slog.Error("job result transition failed", "job_id", jobID, "error", err)
	}
}
