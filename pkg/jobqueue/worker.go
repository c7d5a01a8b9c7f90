package jobqueue

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type JobHandler func(ctx context.Context, job *Job) error

// Worker polls a JobQueue and dispatches jobs to handlers by type
type Worker struct {
	queue        *JobQueue
	logger       *zap.Logger
	handlers     map[string]JobHandler
	priorities   []Priority
	workers      int
	pollInterval time.Duration
	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

func NewWorker(queue *JobQueue, logger *zap.Logger, workers int) *Worker {
	if workers < 1 {
		workers = 1
	}
	return &Worker{
		queue:    queue,
		logger:   logger,
		handlers: make(map[string]JobHandler),
		priorities: []Priority{
			PriorityCritical,
			PriorityHigh,
			PriorityNormal,
			PriorityLow,
		},
		workers:      workers,
		pollInterval: 100 * time.Millisecond,
		stopCh:       make(chan struct{}),
	}
}

// RegisterHandler must be called before Start
func (w *Worker) RegisterHandler(jobType string, handler JobHandler) {
	w.handlers[jobType] = handler
}

func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Starting workers", zap.Int("count", w.workers))

	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i)
	}

	w.wg.Add(1)
	go w.processScheduledJobs(ctx)
}

func (w *Worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			job, err := w.queue.Dequeue(ctx, w.priorities)
			if err != nil {
				w.logger.Error("Failed to dequeue job", zap.Int("worker", workerID), zap.Error(err))
				continue
			}
			if job == nil {
				continue
			}
			w.handleJob(ctx, job, workerID)
		}
	}
}

func (w *Worker) handleJob(ctx context.Context, job *Job, workerID int) {
	handler, exists := w.handlers[job.Type]
	if !exists {
		w.logger.Error("No handler for job type", zap.String("type", job.Type))
		if err := w.queue.MoveToDeadLetter(ctx, job, "no handler found"); err != nil {
			w.logger.Error("Failed to dead-letter job", zap.String("job_id", job.ID), zap.Error(err))
		}
		return
	}

	w.logger.Debug("Processing job",
		zap.Int("worker", workerID),
		zap.String("job_id", job.ID),
		zap.String("type", job.Type),
		zap.Int("attempt", job.Retries+1),
	)

	jobCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	if err := handler(jobCtx, job); err != nil {
		w.logger.Error("Job failed",
			zap.String("job_id", job.ID),
			zap.String("type", job.Type),
			zap.Error(err),
		)
		if err := w.queue.Retry(ctx, job); err != nil {
			w.logger.Error("Failed to retry job", zap.String("job_id", job.ID), zap.Error(err))
		}
		return
	}

	w.logger.Info("Job completed", zap.String("job_id", job.ID), zap.String("type", job.Type))
}

func (w *Worker) processScheduledJobs(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			if err := w.queue.ProcessScheduled(ctx); err != nil {
				w.logger.Error("Failed to process scheduled jobs", zap.Error(err))
			}
		}
	}
}

func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.logger.Info("Workers stopped")
}
