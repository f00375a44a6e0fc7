package mailqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/eventkit/pkg/pg"
)

// PGStorage is the PostgreSQL implementation of Storage.
type PGStorage struct {
	pool *pgxpool.Pool
}

// NewPGStorage creates a PostgreSQL-backed job storage.
func NewPGStorage(pool *pgxpool.Pool) *PGStorage {
	return &PGStorage{pool: pool}
}

func (s *PGStorage) CreateJob(ctx context.Context, job *Job) error {
	query := `
		INSERT INTO email_jobs (id, name, payload, status, retry_count, max_retries, scheduled_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		job.ID, job.Name, job.Payload, job.Status, job.RetryCount, job.MaxRetries, job.ScheduledAt, job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert email job %s: %w", job.ID, err)
	}
	return nil
}

// ClaimJob picks the oldest due pending job with FOR UPDATE SKIP LOCKED so
// concurrent workers never claim the same row. A processing job whose lock
// expired is claimable again: its worker crashed without completing or
// failing it, and the handler side is safe to re-run (email sends are
// deduplicated by the delivery ledger upstream).
func (s *PGStorage) ClaimJob(ctx context.Context, workerID uuid.UUID, lockDuration time.Duration) (*Job, error) {
	query := `
		UPDATE email_jobs
		SET status = 'processing', locked_by = $1, locked_until = now() + $2
		WHERE id = (
			SELECT id FROM email_jobs
			WHERE (status = 'pending' AND scheduled_at <= now())
			   OR (status = 'processing' AND locked_until < now())
			ORDER BY scheduled_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, name, payload, status, retry_count, max_retries, scheduled_at, locked_until, locked_by, processed_at, error, created_at
	`

	var job Job
	err := s.pool.QueryRow(ctx, query, workerID, lockDuration).Scan(
		&job.ID, &job.Name, &job.Payload, &job.Status, &job.RetryCount, &job.MaxRetries,
		&job.ScheduledAt, &job.LockedUntil, &job.LockedBy, &job.ProcessedAt, &job.Error, &job.CreatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNoJobToClaim
		}
		return nil, fmt.Errorf("failed to claim email job: %w", err)
	}

	return &job, nil
}

func (s *PGStorage) CompleteJob(ctx context.Context, jobID uuid.UUID) error {
	query := `
		UPDATE email_jobs
		SET status = 'completed', processed_at = now(), locked_until = NULL, locked_by = NULL
		WHERE id = $1 AND status = 'processing'
	`

	tag, err := s.pool.Exec(ctx, query, jobID)
	if err != nil {
		return fmt.Errorf("failed to complete email job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (s *PGStorage) FailJob(ctx context.Context, jobID uuid.UUID, errMsg string, backoff time.Duration) error {
	// One statement decides retry-vs-terminal from the stored retry budget.
	query := `
		UPDATE email_jobs
		SET retry_count = retry_count + 1,
		    error = $2,
		    locked_until = NULL,
		    locked_by = NULL,
		    status = CASE WHEN retry_count + 1 > max_retries THEN 'failed' ELSE 'pending' END,
		    processed_at = CASE WHEN retry_count + 1 > max_retries THEN now() ELSE processed_at END,
		    scheduled_at = CASE WHEN retry_count + 1 > max_retries THEN scheduled_at ELSE now() + $3 END
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query, jobID, errMsg, backoff)
	if err != nil {
		return fmt.Errorf("failed to record failure for email job %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}
