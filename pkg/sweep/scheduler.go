package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/eventkit/pkg/logger"
	"github.com/dmitrymomot/eventkit/pkg/metrics"
)

// JobFunc is one sweep invocation. Errors are reported, not retried; the
// next tick runs regardless.
type JobFunc func(ctx context.Context) error

type job struct {
	name   string
	period time.Duration
	fn     JobFunc
}

// Scheduler runs named jobs on fixed periods, one goroutine per job. A
// panicking or failing invocation is isolated: it is logged and counted,
// and neither its own future ticks nor the other jobs are affected.
type Scheduler struct {
	mu      sync.Mutex
	jobs    []job
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithLogger sets the scheduler logger.
func WithLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics wires sweep counters.
func WithMetrics(m *metrics.Metrics) SchedulerOption {
	return func(s *Scheduler) { s.metrics = m }
}

// NewScheduler creates an empty scheduler.
func NewScheduler(opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddJob registers a named job with a fixed period. Must be called before
// Start.
func (s *Scheduler) AddJob(name string, period time.Duration, fn JobFunc) error {
	if name == "" || fn == nil || period <= 0 {
		return ErrInvalidJob
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrAlreadyStarted
	}
	for _, j := range s.jobs {
		if j.name == name {
			return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
		}
	}
	s.jobs = append(s.jobs, job{name: name, period: period, fn: fn})
	return nil
}

// Start launches every registered job and returns. Jobs run until the
// context is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyStarted
	}
	if len(s.jobs) == 0 {
		return ErrNoJobs
	}

	ctx, s.cancel = context.WithCancel(ctx)
	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.run(ctx, j)
	}

	s.logger.InfoContext(ctx, "sweep scheduler started", slog.Int("jobs", len(s.jobs)))
	return nil
}

// Stop cancels all jobs and waits for in-flight invocations to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.logger.Info("sweep scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context, j job) {
	defer s.wg.Done()

	ticker := time.NewTicker(j.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.invoke(ctx, j)
		}
	}
}

// invoke runs one tick with panic and error isolation.
func (s *Scheduler) invoke(ctx context.Context, j job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.LogAttrs(ctx, slog.LevelError, "sweep job panicked",
				slog.String("job", j.name),
				slog.Any("panic", r),
			)
			s.metrics.SweepRun(j.name, "panic")
		}
	}()

	start := time.Now()
	if err := j.fn(ctx); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelError, "sweep job failed",
			slog.String("job", j.name),
			slog.Duration("duration", time.Since(start)),
			logger.Error(err),
		)
		s.metrics.SweepRun(j.name, "error")
		return
	}

	s.logger.LogAttrs(ctx, slog.LevelDebug, "sweep job completed",
		slog.String("job", j.name),
		slog.Duration("duration", time.Since(start)),
	)
	s.metrics.SweepRun(j.name, "ok")
}
