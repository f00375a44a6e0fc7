package mailqueue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Storage persists email jobs for the queue.
type Storage interface {
	// CreateJob stores a new pending job.
	CreateJob(ctx context.Context, job *Job) error

	// ClaimJob atomically claims the next due pending job for a worker,
	// returning ErrNoJobToClaim when nothing is due.
	ClaimJob(ctx context.Context, workerID uuid.UUID, lockDuration time.Duration) (*Job, error)

	// CompleteJob marks a processing job completed.
	CompleteJob(ctx context.Context, jobID uuid.UUID) error

	// FailJob records a failure. While retries remain the job is returned to
	// pending with the given backoff delay; otherwise it stays failed.
	FailJob(ctx context.Context, jobID uuid.UUID, errMsg string, backoff time.Duration) error
}
