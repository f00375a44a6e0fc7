package mailqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is an in-memory implementation of Storage for testing and
// local development.
type MemoryStorage struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*Job
}

// NewMemoryStorage creates a new in-memory job storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{jobs: make(map[uuid.UUID]*Job)}
}

func (s *MemoryStorage) CreateJob(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job with ID %s already exists", job.ID)
	}

	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *MemoryStorage) ClaimJob(ctx context.Context, workerID uuid.UUID, lockDuration time.Duration) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var best *Job
	for _, job := range s.jobs {
		// A processing job with an expired lock belonged to a crashed
		// worker and is claimable again.
		switch job.Status {
		case JobStatusPending:
			if job.ScheduledAt.After(now) {
				continue
			}
		case JobStatusProcessing:
			if job.LockedUntil == nil || !job.LockedUntil.Before(now) {
				continue
			}
		default:
			continue
		}
		if best == nil || job.ScheduledAt.Before(best.ScheduledAt) {
			best = job
		}
	}

	if best == nil {
		return nil, ErrNoJobToClaim
	}

	lockUntil := now.Add(lockDuration)
	best.Status = JobStatusProcessing
	best.LockedUntil = &lockUntil
	best.LockedBy = &workerID

	cp := *best
	return &cp, nil
}

func (s *MemoryStorage) CompleteJob(ctx context.Context, jobID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return ErrJobNotFound
	}

	now := time.Now()
	job.Status = JobStatusCompleted
	job.ProcessedAt = &now
	job.LockedUntil = nil
	job.LockedBy = nil
	return nil
}

func (s *MemoryStorage) FailJob(ctx context.Context, jobID uuid.UUID, errMsg string, backoff time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return ErrJobNotFound
	}

	job.RetryCount++
	job.Error = &errMsg
	job.LockedUntil = nil
	job.LockedBy = nil

	if job.RetryCount > job.MaxRetries {
		now := time.Now()
		job.Status = JobStatusFailed
		job.ProcessedAt = &now
		return nil
	}

	job.Status = JobStatusPending
	job.ScheduledAt = time.Now().Add(backoff)
	return nil
}

// Get returns a copy of the stored job, for tests.
func (s *MemoryStorage) Get(jobID uuid.UUID) (*Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, false
	}
	cp := *job
	return &cp, true
}

// All returns copies of all stored jobs, for tests.
func (s *MemoryStorage) All() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	return out
}
