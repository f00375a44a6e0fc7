package batch_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/eventkit/pkg/batch"
)

func TestNewRunner_RequiresStore(t *testing.T) {
	t.Parallel()

	_, err := batch.NewRunner(nil)
	assert.ErrorIs(t, err, batch.ErrStoreNil)
}

func TestProcess_CountsSuccessesAndFailures(t *testing.T) {
	t.Parallel()

	store := batch.NewMemoryRunStore()
	runner, err := batch.NewRunner(store)
	require.NoError(t, err)

	items := []int{1, 2, 3, 4, 5}
	run, err := batch.Process(context.Background(), runner, "test-batch", items, func(ctx context.Context, n int) error {
		if n%2 == 0 {
			return errors.New("even numbers refused")
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, batch.StatusCompleted, run.Status)
	assert.Equal(t, 5, run.Total)
	assert.Equal(t, 3, run.Succeeded)
	assert.Equal(t, 2, run.Failed)
	assert.Equal(t, "even numbers refused", run.LastError)
	require.NotNil(t, run.FinishedAt)

	stored, err := store.Get(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Succeeded, stored.Succeeded)
	assert.Equal(t, run.Failed, stored.Failed)
	assert.Equal(t, batch.StatusCompleted, stored.Status)
}

func TestProcess_PanicCountsAsFailure(t *testing.T) {
	t.Parallel()

	store := batch.NewMemoryRunStore()
	runner, err := batch.NewRunner(store)
	require.NoError(t, err)

	run, err := batch.Process(context.Background(), runner, "panicky", []string{"a", "b"}, func(ctx context.Context, s string) error {
		if s == "a" {
			panic("boom")
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, batch.StatusCompleted, run.Status)
	assert.Equal(t, 1, run.Succeeded)
	assert.Equal(t, 1, run.Failed)
	assert.Contains(t, run.LastError, "boom")
}

func TestProcess_BoundedConcurrency(t *testing.T) {
	t.Parallel()

	store := batch.NewMemoryRunStore()
	runner, err := batch.NewRunner(store, batch.WithConcurrency(2))
	require.NoError(t, err)

	var inflight, peak atomic.Int64
	items := make([]int, 20)
	run, err := batch.Process(context.Background(), runner, "bounded", items, func(ctx context.Context, _ int) error {
		cur := inflight.Add(1)
		defer inflight.Add(-1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 20, run.Succeeded)
	assert.LessOrEqual(t, peak.Load(), int64(2))
}

func TestProcess_ContextCancellationAborts(t *testing.T) {
	t.Parallel()

	store := batch.NewMemoryRunStore()
	runner, err := batch.NewRunner(store, batch.WithConcurrency(1))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var processed atomic.Int64

	items := make([]int, 100)
	run, err := batch.Process(ctx, runner, "cancelled", items, func(ctx context.Context, _ int) error {
		if processed.Add(1) == 3 {
			cancel()
		}
		time.Sleep(time.Millisecond)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, batch.StatusFailed, run.Status)
	assert.Less(t, int(processed.Load()), 100)
	require.NotNil(t, run.FinishedAt)

	// The final record must not be stuck in StatusRunning.
	stored, getErr := store.Get(context.Background(), run.ID)
	require.NoError(t, getErr)
	assert.Equal(t, batch.StatusFailed, stored.Status)
}

func TestProcess_EmptyName(t *testing.T) {
	t.Parallel()

	runner, err := batch.NewRunner(batch.NewMemoryRunStore())
	require.NoError(t, err)

	_, err = batch.Process(context.Background(), runner, "", []int{1}, func(ctx context.Context, _ int) error { return nil })
	assert.ErrorIs(t, err, batch.ErrEmptyName)
}

func TestProcess_EmptyItems(t *testing.T) {
	t.Parallel()

	runner, err := batch.NewRunner(batch.NewMemoryRunStore())
	require.NoError(t, err)

	run, err := batch.Process(context.Background(), runner, "empty", nil, func(ctx context.Context, _ int) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, batch.StatusCompleted, run.Status)
	assert.Zero(t, run.Total)
}

func TestMemoryRunStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := batch.NewMemoryRunStore()

	t.Run("create and get", func(t *testing.T) {
		run := batch.Run{ID: uuid.New(), Name: "alpha", Status: batch.StatusRunning, StartedAt: time.Now()}
		require.NoError(t, store.Create(ctx, run))

		got, err := store.Get(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, run.Name, got.Name)

		assert.ErrorIs(t, store.Create(ctx, run), batch.ErrRunExists)
	})

	t.Run("update missing", func(t *testing.T) {
		err := store.Update(ctx, batch.Run{ID: uuid.New()})
		assert.ErrorIs(t, err, batch.ErrRunNotFound)
	})

	t.Run("list by name newest first", func(t *testing.T) {
		base := time.Now()
		older := batch.Run{ID: uuid.New(), Name: "beta", StartedAt: base.Add(-time.Hour)}
		newer := batch.Run{ID: uuid.New(), Name: "beta", StartedAt: base}
		require.NoError(t, store.Create(ctx, older))
		require.NoError(t, store.Create(ctx, newer))

		runs, err := store.ListByName(ctx, "beta")
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, newer.ID, runs[0].ID)
		assert.Equal(t, older.ID, runs[1].ID)
	})

	t.Run("concurrent updates", func(t *testing.T) {
		run := batch.Run{ID: uuid.New(), Name: "gamma", StartedAt: time.Now()}
		require.NoError(t, store.Create(ctx, run))

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				r := run
				r.Succeeded = n
				assert.NoError(t, store.Update(ctx, r))
			}(i)
		}
		wg.Wait()
	})
}
