package mailqueue_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/eventkit/pkg/mailqueue"
)

type workerTestPayload struct {
	Message string `json:"message"`
}

func TestNewWorker(t *testing.T) {
	t.Parallel()

	t.Run("nil storage error", func(t *testing.T) {
		t.Parallel()

		worker, err := mailqueue.NewWorker(nil)
		assert.ErrorIs(t, err, mailqueue.ErrStorageNil)
		assert.Nil(t, worker)
	})

	t.Run("start without handlers error", func(t *testing.T) {
		t.Parallel()

		worker, err := mailqueue.NewWorker(mailqueue.NewMemoryStorage())
		require.NoError(t, err)

		assert.ErrorIs(t, worker.Start(context.Background()), mailqueue.ErrNoHandlers)
	})
}

func TestWorker_ProcessesJob(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := mailqueue.NewMemoryStorage()
	enqueuer, err := mailqueue.NewEnqueuer(storage)
	require.NoError(t, err)

	var handled atomic.Int32
	worker, err := mailqueue.NewWorker(storage, mailqueue.WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	worker.RegisterHandlers(mailqueue.NewJobHandler(func(ctx context.Context, p workerTestPayload) error {
		if p.Message == "hello" {
			handled.Add(1)
		}
		return nil
	}))

	require.NoError(t, enqueuer.Enqueue(ctx, workerTestPayload{Message: "hello"}))
	require.NoError(t, worker.Start(ctx))
	defer worker.Stop()

	require.Eventually(t, func() bool {
		return handled.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		jobs := storage.All()
		return len(jobs) == 1 && jobs[0].Status == mailqueue.JobStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWorker_RetriesFailedJob(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := mailqueue.NewMemoryStorage()
	enqueuer, err := mailqueue.NewEnqueuer(storage)
	require.NoError(t, err)

	worker, err := mailqueue.NewWorker(storage, mailqueue.WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	worker.RegisterHandlers(mailqueue.NewJobHandler(func(ctx context.Context, p workerTestPayload) error {
		return errors.New("smtp unavailable")
	}))

	require.NoError(t, enqueuer.Enqueue(ctx, workerTestPayload{}))
	require.NoError(t, worker.Start(ctx))
	defer worker.Stop()

	// First attempt fails; the job goes back to pending with a backoff delay
	// and an incremented retry count.
	require.Eventually(t, func() bool {
		jobs := storage.All()
		return len(jobs) == 1 &&
			jobs[0].Status == mailqueue.JobStatusPending &&
			jobs[0].RetryCount == 1
	}, 2*time.Second, 10*time.Millisecond)

	jobs := storage.All()
	require.NotNil(t, jobs[0].Error)
	assert.Equal(t, "smtp unavailable", *jobs[0].Error)
	assert.True(t, jobs[0].ScheduledAt.After(time.Now().Add(20*time.Second)))
}

func TestWorker_ExhaustedRetriesStayFailed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := mailqueue.NewMemoryStorage()
	enqueuer, err := mailqueue.NewEnqueuer(storage)
	require.NoError(t, err)

	worker, err := mailqueue.NewWorker(storage, mailqueue.WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	worker.RegisterHandlers(mailqueue.NewJobHandler(func(ctx context.Context, p workerTestPayload) error {
		return errors.New("hard bounce")
	}))

	require.NoError(t, enqueuer.Enqueue(ctx, workerTestPayload{}, mailqueue.WithMaxRetries(0)))
	require.NoError(t, worker.Start(ctx))
	defer worker.Stop()

	require.Eventually(t, func() bool {
		jobs := storage.All()
		return len(jobs) == 1 && jobs[0].Status == mailqueue.JobStatusFailed
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWorker_RecoversFromPanic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := mailqueue.NewMemoryStorage()
	enqueuer, err := mailqueue.NewEnqueuer(storage)
	require.NoError(t, err)

	worker, err := mailqueue.NewWorker(storage, mailqueue.WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	worker.RegisterHandlers(mailqueue.NewJobHandler(func(ctx context.Context, p workerTestPayload) error {
		panic("template blew up")
	}))

	require.NoError(t, enqueuer.Enqueue(ctx, workerTestPayload{}, mailqueue.WithMaxRetries(0)))
	require.NoError(t, worker.Start(ctx))
	defer worker.Stop()

	require.Eventually(t, func() bool {
		jobs := storage.All()
		return len(jobs) == 1 && jobs[0].Status == mailqueue.JobStatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	jobs := storage.All()
	require.NotNil(t, jobs[0].Error)
	assert.Contains(t, *jobs[0].Error, "panic in handler")
}

func TestWorker_UnknownJobNameFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := mailqueue.NewMemoryStorage()

	worker, err := mailqueue.NewWorker(storage, mailqueue.WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	worker.RegisterHandlers(mailqueue.NewJobHandler(func(ctx context.Context, p workerTestPayload) error {
		return nil
	}))

	require.NoError(t, storage.CreateJob(ctx, newTestJob("no.such.Handler", time.Now().Add(-time.Minute), 3)))
	require.NoError(t, worker.Start(ctx))
	defer worker.Stop()

	require.Eventually(t, func() bool {
		jobs := storage.All()
		return len(jobs) == 1 && jobs[0].Status == mailqueue.JobStatusFailed
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWorker_StopDrainsInFlightJob(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := mailqueue.NewMemoryStorage()
	enqueuer, err := mailqueue.NewEnqueuer(storage)
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	worker, err := mailqueue.NewWorker(storage, mailqueue.WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	worker.RegisterHandlers(mailqueue.NewJobHandler(func(ctx context.Context, p workerTestPayload) error {
		close(started)
		<-release
		finished.Store(true)
		return nil
	}))

	require.NoError(t, enqueuer.Enqueue(ctx, workerTestPayload{}))
	require.NoError(t, worker.Start(ctx))

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never started")
	}

	stopped := make(chan struct{})
	go func() {
		worker.Stop()
		close(stopped)
	}()

	// Stop must block on the in-flight job until the handler returns.
	select {
	case <-stopped:
		t.Fatal("Stop returned while a job was still in flight")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop never returned after the handler finished")
	}
	assert.True(t, finished.Load())
}

func TestWorker_StartTwice(t *testing.T) {
	t.Parallel()

	worker, err := mailqueue.NewWorker(mailqueue.NewMemoryStorage(), mailqueue.WithPollInterval(10*time.Millisecond))
	require.NoError(t, err)
	worker.RegisterHandlers(mailqueue.NewJobHandler(func(ctx context.Context, p workerTestPayload) error {
		return nil
	}))

	require.NoError(t, worker.Start(context.Background()))
	defer worker.Stop()

	assert.Error(t, worker.Start(context.Background()))
}
