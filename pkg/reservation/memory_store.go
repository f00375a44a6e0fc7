package reservation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of Store.
// Suitable for development and testing.
type MemoryStore struct {
	mu           sync.RWMutex
	reservations map[uuid.UUID]*Reservation
}

// NewMemoryStore creates a new in-memory reservation store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reservations: make(map[uuid.UUID]*Reservation),
	}
}

func (s *MemoryStore) Create(ctx context.Context, r Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reservations[r.ID]; exists {
		return ErrAlreadyExists
	}

	cp := r
	s.reservations[r.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.reservations[id]
	if !exists {
		return nil, ErrNotFound
	}

	cp := *r
	return &cp, nil
}

func (s *MemoryStore) FindExpiringBetween(ctx context.Context, tMin, tMax time.Time) ([]Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Reservation
	for _, r := range s.reservations {
		if r.Status != StatusPending || r.ExpiresAt == nil {
			continue
		}
		// Half-open window: tMin inclusive, tMax exclusive.
		if !r.ExpiresAt.Before(tMin) && r.ExpiresAt.Before(tMax) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *MemoryStore) FindOverdue(ctx context.Context, now time.Time) ([]Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Reservation
	for _, r := range s.reservations {
		if r.Status != StatusPending || r.ExpiresAt == nil {
			continue
		}
		if !r.ExpiresAt.After(now) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *MemoryStore) TransitionToExpired(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.transition(id, StatusExpired)
}

func (s *MemoryStore) Confirm(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.transition(id, StatusConfirmed)
}

func (s *MemoryStore) Cancel(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.transition(id, StatusCancelled)
}

// transition performs the conditioned PENDING -> target update under the
// store mutex, mirroring the row-level conditional UPDATE of the Postgres
// implementation.
func (s *MemoryStore) transition(id uuid.UUID, target Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, exists := s.reservations[id]
	if !exists {
		return false, ErrNotFound
	}

	if !r.Status.CanTransitionTo(target) {
		return false, nil
	}

	r.Status = target
	r.ExpiresAt = nil
	r.UpdatedAt = time.Now()
	return true, nil
}
