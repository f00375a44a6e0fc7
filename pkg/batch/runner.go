package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/eventkit/pkg/logger"
)

const defaultConcurrency = 8

// Runner executes named batches over a bounded worker pool, recording
// progress in a RunStore.
type Runner struct {
	store       RunStore
	logger      *slog.Logger
	concurrency int
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithConcurrency bounds how many items are processed at once.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithLogger sets the runner logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a Runner backed by the given store.
func NewRunner(store RunStore, opts ...RunnerOption) (*Runner, error) {
	if store == nil {
		return nil, ErrStoreNil
	}

	r := &Runner{
		store:       store,
		logger:      slog.Default(),
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Process runs fn over every item with bounded concurrency and records the
// outcome. Item failures and panics are counted, not fatal: the batch keeps
// going and finishes StatusCompleted with the failure count in the run
// record. Only a cancelled context or a store failure aborts the batch,
// leaving it StatusFailed.
func Process[T any](ctx context.Context, r *Runner, name string, items []T, fn func(context.Context, T) error) (Run, error) {
	if name == "" {
		return Run{}, ErrEmptyName
	}

	run := Run{
		ID:        uuid.New(),
		Name:      name,
		Status:    StatusRunning,
		Total:     len(items),
		StartedAt: time.Now(),
	}
	if err := r.store.Create(ctx, run); err != nil {
		return Run{}, fmt.Errorf("failed to record batch run: %w", err)
	}

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		lastError string
	)
	sem := make(chan struct{}, r.concurrency)

loop:
	for i, item := range items {
		select {
		case <-ctx.Done():
			break loop
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(idx int, item T) {
			defer wg.Done()
			defer func() { <-sem }()

			err := processOne(ctx, fn, item)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				run.Failed++
				lastError = err.Error()
				r.logger.LogAttrs(ctx, slog.LevelError, "batch item failed",
					slog.String("batch", name),
					slog.Int("item", idx),
					logger.Error(err),
				)
				return
			}
			run.Succeeded++
		}(i, item)
	}
	wg.Wait()

	now := time.Now()
	run.FinishedAt = &now
	run.LastError = lastError
	run.Status = StatusCompleted
	if err := ctx.Err(); err != nil {
		run.Status = StatusFailed
		run.LastError = err.Error()
	}

	// Finalize even when the batch context was cancelled; the record must
	// not be left in StatusRunning.
	if err := r.store.Update(context.WithoutCancel(ctx), run); err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "failed to finalize batch run",
			slog.String("batch", name),
			logger.Error(err),
		)
	}

	r.logger.LogAttrs(ctx, slog.LevelInfo, "batch run finished",
		slog.String("batch", name),
		slog.String("status", string(run.Status)),
		slog.Int("total", run.Total),
		slog.Int("succeeded", run.Succeeded),
		slog.Int("failed", run.Failed),
	)
	return run, nil
}

func processOne[T any](ctx context.Context, fn func(context.Context, T) error, item T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, item)
}
