package mailqueue_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/eventkit/pkg/mailqueue"
)

func newTestJob(name string, scheduledAt time.Time, maxRetries int8) *mailqueue.Job {
	return &mailqueue.Job{
		ID:          uuid.New(),
		Name:        name,
		Payload:     []byte(`{}`),
		Status:      mailqueue.JobStatusPending,
		MaxRetries:  maxRetries,
		ScheduledAt: scheduledAt,
		CreatedAt:   time.Now(),
	}
}

func TestMemoryStorage_CreateJob(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := mailqueue.NewMemoryStorage()

	job := newTestJob("welcome", time.Now(), 3)
	require.NoError(t, storage.CreateJob(ctx, job))

	t.Run("duplicate id rejected", func(t *testing.T) {
		assert.Error(t, storage.CreateJob(ctx, job))
	})

	t.Run("nil job rejected", func(t *testing.T) {
		assert.Error(t, storage.CreateJob(ctx, nil))
	})
}

func TestMemoryStorage_ClaimJob(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	workerID := uuid.New()

	t.Run("claims oldest due job", func(t *testing.T) {
		t.Parallel()

		storage := mailqueue.NewMemoryStorage()
		older := newTestJob("older", time.Now().Add(-2*time.Minute), 3)
		newer := newTestJob("newer", time.Now().Add(-time.Minute), 3)
		require.NoError(t, storage.CreateJob(ctx, newer))
		require.NoError(t, storage.CreateJob(ctx, older))

		claimed, err := storage.ClaimJob(ctx, workerID, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, older.ID, claimed.ID)
		assert.Equal(t, mailqueue.JobStatusProcessing, claimed.Status)
		require.NotNil(t, claimed.LockedBy)
		assert.Equal(t, workerID, *claimed.LockedBy)
		require.NotNil(t, claimed.LockedUntil)
	})

	t.Run("skips future scheduled jobs", func(t *testing.T) {
		t.Parallel()

		storage := mailqueue.NewMemoryStorage()
		require.NoError(t, storage.CreateJob(ctx, newTestJob("later", time.Now().Add(time.Hour), 3)))

		_, err := storage.ClaimJob(ctx, workerID, time.Minute)
		assert.ErrorIs(t, err, mailqueue.ErrNoJobToClaim)
	})

	t.Run("claimed job is not claimable again", func(t *testing.T) {
		t.Parallel()

		storage := mailqueue.NewMemoryStorage()
		require.NoError(t, storage.CreateJob(ctx, newTestJob("once", time.Now().Add(-time.Minute), 3)))

		_, err := storage.ClaimJob(ctx, workerID, time.Minute)
		require.NoError(t, err)

		_, err = storage.ClaimJob(ctx, workerID, time.Minute)
		assert.ErrorIs(t, err, mailqueue.ErrNoJobToClaim)
	})

	t.Run("reclaims job whose lock expired", func(t *testing.T) {
		t.Parallel()

		storage := mailqueue.NewMemoryStorage()
		job := newTestJob("orphaned", time.Now().Add(-time.Minute), 3)
		require.NoError(t, storage.CreateJob(ctx, job))

		// First worker claims with a tiny lock and then "crashes": it
		// never completes or fails the job.
		crashed := uuid.New()
		_, err := storage.ClaimJob(ctx, crashed, time.Millisecond)
		require.NoError(t, err)

		time.Sleep(50 * time.Millisecond)

		reclaimed, err := storage.ClaimJob(ctx, workerID, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, job.ID, reclaimed.ID)
		assert.Equal(t, mailqueue.JobStatusProcessing, reclaimed.Status)
		require.NotNil(t, reclaimed.LockedBy)
		assert.Equal(t, workerID, *reclaimed.LockedBy)
		require.NotNil(t, reclaimed.LockedUntil)
		assert.True(t, reclaimed.LockedUntil.After(time.Now()))
	})

	t.Run("live lock is not reclaimable", func(t *testing.T) {
		t.Parallel()

		storage := mailqueue.NewMemoryStorage()
		require.NoError(t, storage.CreateJob(ctx, newTestJob("held", time.Now().Add(-time.Minute), 3)))

		_, err := storage.ClaimJob(ctx, uuid.New(), time.Hour)
		require.NoError(t, err)

		_, err = storage.ClaimJob(ctx, workerID, time.Minute)
		assert.ErrorIs(t, err, mailqueue.ErrNoJobToClaim)
	})
}

func TestMemoryStorage_CompleteJob(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := mailqueue.NewMemoryStorage()

	job := newTestJob("complete-me", time.Now().Add(-time.Minute), 3)
	require.NoError(t, storage.CreateJob(ctx, job))
	_, err := storage.ClaimJob(ctx, uuid.New(), time.Minute)
	require.NoError(t, err)

	require.NoError(t, storage.CompleteJob(ctx, job.ID))

	stored, ok := storage.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, mailqueue.JobStatusCompleted, stored.Status)
	assert.NotNil(t, stored.ProcessedAt)
	assert.Nil(t, stored.LockedBy)

	t.Run("unknown job id", func(t *testing.T) {
		assert.ErrorIs(t, storage.CompleteJob(ctx, uuid.New()), mailqueue.ErrJobNotFound)
	})
}

func TestMemoryStorage_FailJob(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("requeues with backoff while retries remain", func(t *testing.T) {
		t.Parallel()

		storage := mailqueue.NewMemoryStorage()
		job := newTestJob("flaky", time.Now().Add(-time.Minute), 3)
		require.NoError(t, storage.CreateJob(ctx, job))

		before := time.Now()
		require.NoError(t, storage.FailJob(ctx, job.ID, "provider timeout", 30*time.Second))

		stored, ok := storage.Get(job.ID)
		require.True(t, ok)
		assert.Equal(t, mailqueue.JobStatusPending, stored.Status)
		assert.Equal(t, int8(1), stored.RetryCount)
		require.NotNil(t, stored.Error)
		assert.Equal(t, "provider timeout", *stored.Error)
		assert.True(t, stored.ScheduledAt.After(before.Add(29*time.Second)))
	})

	t.Run("stays failed after retries exhausted", func(t *testing.T) {
		t.Parallel()

		storage := mailqueue.NewMemoryStorage()
		job := newTestJob("hopeless", time.Now().Add(-time.Minute), 0)
		require.NoError(t, storage.CreateJob(ctx, job))

		require.NoError(t, storage.FailJob(ctx, job.ID, "bounced", 30*time.Second))

		stored, ok := storage.Get(job.ID)
		require.True(t, ok)
		assert.Equal(t, mailqueue.JobStatusFailed, stored.Status)
		assert.NotNil(t, stored.ProcessedAt)

		_, err := storage.ClaimJob(ctx, uuid.New(), time.Minute)
		assert.ErrorIs(t, err, mailqueue.ErrNoJobToClaim)
	})

	t.Run("unknown job id", func(t *testing.T) {
		t.Parallel()

		storage := mailqueue.NewMemoryStorage()
		assert.ErrorIs(t, storage.FailJob(ctx, uuid.New(), "x", 0), mailqueue.ErrJobNotFound)
	})
}
