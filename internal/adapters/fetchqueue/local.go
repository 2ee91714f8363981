package fetchqueue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/steambuddy/steambuddy/internal/logging"
	"github.com/steambuddy/steambuddy/internal/reporting"
)

const LOCAL_QUEUE_SIZE = 1024

// In-process dispatcher backed by a buffered channel and a fixed worker pool.
// Jobs still in the queue when the process exits are lost.
type LocalDispatcher struct {
	jobs    chan FetchJob
	handler JobHandler
	workers int

	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewLocalDispatcher(handler JobHandler, queueSize int, workers int, logger *slog.Logger) *LocalDispatcher {
	if workers < 1 {
		workers = 1
	}
	return &LocalDispatcher{
		jobs:    make(chan FetchJob, queueSize),
		handler: handler,
		workers: workers,

		logger: logger,
	}
}

// Start the workers. The context is the parent of every job context and should not be tied to a request.
func (d *LocalDispatcher) Start(ctx context.Context) {
	for i := range d.workers {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.work(ctx, i)
		}()
	}
}

func (d *LocalDispatcher) work(ctx context.Context, worker int) {
	logger := d.logger.With("worker", worker)
	for job := range d.jobs {
		jobCtx := reporting.AddHubToContext(ctx)
		jobCtx = reporting.AddFetchJobToContext(jobCtx, job.ID.String(), job.SteamID)
		jobCtx = logging.AddToContext(jobCtx, logger.With("jobId", job.ID.String(), "steamId", job.SteamID))

		runJob(jobCtx, d.handler, job)
	}
}

func (d *LocalDispatcher) Enqueue(ctx context.Context, job FetchJob) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		reporting.Report(ctx, ErrDispatcherClosed)
		return ErrDispatcherClosed
	}

	select {
	case d.jobs <- job:
		return nil
	default:
		err := fmt.Errorf("failed to enqueue fetch job: %w", ErrQueueFull)
		reporting.Report(ctx, err, map[string]string{
			"steamId":   job.SteamID,
			"queueSize": fmt.Sprint(cap(d.jobs)),
		})
		return err
	}
}

// Stop accepting jobs and wait for the queued jobs to finish
func (d *LocalDispatcher) Stop() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

func runJob(ctx context.Context, handler JobHandler, job FetchJob) {
	logger := logging.FromContext(ctx)
	logger.InfoContext(ctx, "Running fetch job", "enqueuedAt", job.EnqueuedAt)

	err := handler(ctx, job)
	if err != nil {
		// NOTE: The error has been reported by the handler's dependencies, we only log the outcome here
		logger.ErrorContext(ctx, "Fetch job failed", "error", err.Error())
		return
	}

	logger.InfoContext(ctx, "Fetch job completed")
}
