package sweep_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/eventkit/pkg/sweep"
)

func TestScheduler_AddJobValidation(t *testing.T) {
	t.Parallel()

	noop := func(ctx context.Context) error { return nil }

	t.Run("empty name", func(t *testing.T) {
		t.Parallel()
		s := sweep.NewScheduler()
		assert.ErrorIs(t, s.AddJob("", time.Second, noop), sweep.ErrInvalidJob)
	})

	t.Run("nil func", func(t *testing.T) {
		t.Parallel()
		s := sweep.NewScheduler()
		assert.ErrorIs(t, s.AddJob("expired", time.Second, nil), sweep.ErrInvalidJob)
	})

	t.Run("non-positive period", func(t *testing.T) {
		t.Parallel()
		s := sweep.NewScheduler()
		assert.ErrorIs(t, s.AddJob("expired", 0, noop), sweep.ErrInvalidJob)
	})

	t.Run("duplicate name", func(t *testing.T) {
		t.Parallel()
		s := sweep.NewScheduler()
		require.NoError(t, s.AddJob("expired", time.Second, noop))
		err := s.AddJob("expired", time.Minute, noop)
		assert.ErrorIs(t, err, sweep.ErrDuplicateJob)
		assert.Contains(t, err.Error(), "expired")
	})
}

func TestScheduler_StartWithoutJobs(t *testing.T) {
	t.Parallel()

	s := sweep.NewScheduler()
	assert.ErrorIs(t, s.Start(context.Background()), sweep.ErrNoJobs)
}

func TestScheduler_DoubleStart(t *testing.T) {
	t.Parallel()

	s := sweep.NewScheduler()
	require.NoError(t, s.AddJob("noop", time.Hour, func(ctx context.Context) error { return nil }))

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	assert.ErrorIs(t, s.Start(context.Background()), sweep.ErrAlreadyStarted)
	assert.ErrorIs(t, s.AddJob("late", time.Hour, func(ctx context.Context) error { return nil }), sweep.ErrAlreadyStarted)
}

func TestScheduler_JobsRunOnTheirPeriods(t *testing.T) {
	t.Parallel()

	var ticks atomic.Int64
	s := sweep.NewScheduler()
	require.NoError(t, s.AddJob("counter", 10*time.Millisecond, func(ctx context.Context) error {
		ticks.Add(1)
		return nil
	}))

	require.NoError(t, s.Start(context.Background()))
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, ticks.Load(), int64(3))
}

func TestScheduler_PanicAndErrorIsolation(t *testing.T) {
	t.Parallel()

	var panics, failures, healthy atomic.Int64
	s := sweep.NewScheduler()

	require.NoError(t, s.AddJob("panics", 10*time.Millisecond, func(ctx context.Context) error {
		panics.Add(1)
		panic("sweep exploded")
	}))
	require.NoError(t, s.AddJob("fails", 10*time.Millisecond, func(ctx context.Context) error {
		failures.Add(1)
		return errors.New("storage unavailable")
	}))
	require.NoError(t, s.AddJob("healthy", 10*time.Millisecond, func(ctx context.Context) error {
		healthy.Add(1)
		return nil
	}))

	require.NoError(t, s.Start(context.Background()))
	time.Sleep(100 * time.Millisecond)
	s.Stop()

	// A panicking tick must not kill its own ticker, and a misbehaving
	// job must not slow the others down.
	assert.GreaterOrEqual(t, panics.Load(), int64(2), "panicking job should keep ticking")
	assert.GreaterOrEqual(t, failures.Load(), int64(2), "failing job should keep ticking")
	assert.GreaterOrEqual(t, healthy.Load(), int64(2), "healthy job should be unaffected")
}

func TestScheduler_StopWaitsForInflight(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	var finished atomic.Bool

	s := sweep.NewScheduler()
	require.NoError(t, s.AddJob("slow", 10*time.Millisecond, func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		time.Sleep(30 * time.Millisecond)
		finished.Store(true)
		return nil
	}))

	require.NoError(t, s.Start(context.Background()))
	<-started
	s.Stop()

	assert.True(t, finished.Load(), "Stop should wait for the in-flight invocation")
}

func TestScheduler_ContextCancelStopsJobs(t *testing.T) {
	t.Parallel()

	var ticks atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())

	s := sweep.NewScheduler()
	require.NoError(t, s.AddJob("counter", 5*time.Millisecond, func(ctx context.Context) error {
		ticks.Add(1)
		return nil
	}))
	require.NoError(t, s.Start(ctx))

	time.Sleep(30 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)
	after := ticks.Load()
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, after, ticks.Load(), "no ticks after context cancellation")
	s.Stop()
}
