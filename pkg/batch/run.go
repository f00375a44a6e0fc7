package batch

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status of a batch run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is the persistent record of one batch execution. A run that a crash
// left in StatusRunning with no FinishedAt is visible to operators, which
// is the whole reason the record exists.
type Run struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Status     Status     `json:"status"`
	Total      int        `json:"total"`
	Succeeded  int        `json:"succeeded"`
	Failed     int        `json:"failed"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
}

// RunStore persists batch run records.
type RunStore interface {
	// Create stores a new run record.
	Create(ctx context.Context, run Run) error

	// Update replaces an existing run record.
	Update(ctx context.Context, run Run) error

	// Get retrieves a run by ID.
	Get(ctx context.Context, id uuid.UUID) (*Run, error)

	// ListByName returns the runs of a named batch, newest first.
	ListByName(ctx context.Context, name string) ([]Run, error)
}

// MemoryRunStore is an in-memory RunStore for development and tests.
type MemoryRunStore struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]Run
}

// NewMemoryRunStore creates an empty in-memory run store.
func NewMemoryRunStore() *MemoryRunStore {
	return &MemoryRunStore{runs: make(map[uuid.UUID]Run)}
}

func (s *MemoryRunStore) Create(ctx context.Context, run Run) error {
	if run.ID == uuid.Nil {
		return ErrInvalidRun
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[run.ID]; exists {
		return ErrRunExists
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryRunStore) Update(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.runs[run.ID]; !exists {
		return ErrRunNotFound
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryRunStore) Get(ctx context.Context, id uuid.UUID) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, exists := s.runs[id]
	if !exists {
		return nil, ErrRunNotFound
	}
	cp := run
	return &cp, nil
}

func (s *MemoryRunStore) ListByName(ctx context.Context, name string) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Run
	for _, run := range s.runs {
		if run.Name == name {
			out = append(out, run)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}
