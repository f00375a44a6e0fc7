package mailqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Worker claims and processes email jobs.
type Worker struct {
	storage  Storage
	handlers map[string]Handler
	workerID uuid.UUID
	sem      chan struct{}
	wg       sync.WaitGroup
	mu       sync.RWMutex

	pollInterval time.Duration
	lockTimeout  time.Duration
	logger       *slog.Logger

	cancel context.CancelFunc
}

// WorkerOption is a functional option for configuring a worker.
type WorkerOption func(*workerOptions)

type workerOptions struct {
	pollInterval      time.Duration
	lockTimeout       time.Duration
	maxConcurrentJobs int
	logger            *slog.Logger
}

// WithPollInterval sets how often the worker polls for due jobs.
func WithPollInterval(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithLockTimeout sets the claim lock duration, which also bounds handler execution time.
func WithLockTimeout(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.lockTimeout = d
		}
	}
}

// WithMaxConcurrentJobs bounds how many jobs run at once.
func WithMaxConcurrentJobs(n int) WorkerOption {
	return func(o *workerOptions) {
		if n > 0 {
			o.maxConcurrentJobs = n
		}
	}
}

// WithWorkerLogger sets the logger for the worker.
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(o *workerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewWorker creates a new mail queue worker.
func NewWorker(storage Storage, opts ...WorkerOption) (*Worker, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}

	options := &workerOptions{
		pollInterval:      5 * time.Second,
		lockTimeout:       2 * time.Minute,
		maxConcurrentJobs: 1,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Worker{
		storage:      storage,
		handlers:     make(map[string]Handler),
		workerID:     uuid.New(),
		sem:          make(chan struct{}, options.maxConcurrentJobs),
		pollInterval: options.pollInterval,
		lockTimeout:  options.lockTimeout,
		logger:       options.logger,
	}, nil
}

// RegisterHandlers registers job handlers by name.
func (w *Worker) RegisterHandlers(handlers ...Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, h := range handlers {
		if h != nil {
			w.handlers[h.Name()] = h
		}
	}
}

// Start begins processing jobs until the context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.cancel != nil {
		w.mu.Unlock()
		return fmt.Errorf("worker already started")
	}
	if len(w.handlers) == 0 {
		w.mu.Unlock()
		return ErrNoHandlers
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	go w.run(ctx)

	w.logger.Info("mail queue worker started",
		slog.String("worker_id", w.workerID.String()),
		slog.Int("max_concurrent", cap(w.sem)))

	return nil
}

// Stop cancels processing and waits for in-flight jobs to finish.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	w.wg.Wait()

	w.logger.Info("mail queue worker stopped",
		slog.String("worker_id", w.workerID.String()))
}

func (w *Worker) run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			select {
			case w.sem <- struct{}{}:
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-w.sem }()

					if err := w.claimAndProcess(ctx); err != nil && !errors.Is(err, ErrHandlerNotFound) {
						w.logger.Error("failed to process email job",
							slog.String("worker_id", w.workerID.String()),
							slog.String("error", err.Error()))
					}
				}()
			default:
				// All slots busy, skip this tick.
			}
		}
	}
}

func (w *Worker) claimAndProcess(ctx context.Context) error {
	job, err := w.storage.ClaimJob(ctx, w.workerID, w.lockTimeout)
	if err != nil {
		if errors.Is(err, ErrNoJobToClaim) {
			return nil
		}
		return fmt.Errorf("failed to claim job: %w", err)
	}

	return w.process(ctx, job)
}

func (w *Worker) process(ctx context.Context, job *Job) (retErr error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("panic in handler: %v", r)
			w.logger.Error("email job handler panicked",
				slog.String("job_id", job.ID.String()),
				slog.String("job_name", job.Name),
				slog.Any("panic", r))
			_ = w.fail(ctx, job, retErr)
		}
	}()

	w.mu.RLock()
	handler, ok := w.handlers[job.Name]
	w.mu.RUnlock()

	if !ok {
		w.logger.Error("no handler registered for job name",
			slog.String("job_id", job.ID.String()),
			slog.String("job_name", job.Name))
		if err := w.storage.FailJob(ctx, job.ID, "no handler registered for job name: "+job.Name, 0); err != nil {
			return fmt.Errorf("failed to mark job %s failed: %w", job.ID, err)
		}
		return ErrHandlerNotFound
	}

	// Handler runs under the lock timeout so a stuck provider call cannot
	// outlive the claim.
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.lockTimeout)
	defer cancel()

	if err := handler.Handle(hctx, job.Payload); err != nil {
		w.logger.Error("email job failed",
			slog.String("job_id", job.ID.String()),
			slog.String("job_name", job.Name),
			slog.Int("retry_count", int(job.RetryCount)),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()))
		return w.fail(ctx, job, err)
	}

	if err := w.storage.CompleteJob(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to mark job %s completed: %w", job.ID, err)
	}

	w.logger.Info("email job completed",
		slog.String("job_id", job.ID.String()),
		slog.String("job_name", job.Name),
		slog.Duration("duration", time.Since(start)))

	return nil
}

// fail records the failure with linear backoff on the retry schedule.
func (w *Worker) fail(ctx context.Context, job *Job, execErr error) error {
	backoff := time.Duration(job.RetryCount+1) * 30 * time.Second
	if err := w.storage.FailJob(ctx, job.ID, execErr.Error(), backoff); err != nil {
		return fmt.Errorf("failed to record failure for job %s: %w", job.ID, err)
	}
	return nil
}
