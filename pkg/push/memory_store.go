package push

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryTokenStore is an in-memory TokenStore for development and testing.
type MemoryTokenStore struct {
	mu      sync.RWMutex
	byToken map[string]*DeviceToken
}

// NewMemoryTokenStore creates a new in-memory token store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{byToken: make(map[string]*DeviceToken)}
}

func (s *MemoryTokenStore) Upsert(ctx context.Context, token DeviceToken) (DeviceToken, error) {
	if token.Token == "" || token.UserID == uuid.Nil {
		return DeviceToken{}, ErrInvalidToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.byToken[token.Token]; ok {
		existing.UserID = token.UserID
		existing.Platform = token.Platform
		existing.Provider = token.Provider
		existing.DeviceInfo = token.DeviceInfo
		existing.IsActive = true
		existing.UpdatedAt = now
		return *existing, nil
	}

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	token.IsActive = true
	token.CreatedAt = now
	token.UpdatedAt = now

	cp := token
	s.byToken[token.Token] = &cp
	return token, nil
}

func (s *MemoryTokenStore) Deactivate(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byToken[token]
	if !ok {
		return ErrTokenNotFound
	}
	existing.IsActive = false
	existing.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryTokenStore) DeactivateAll(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, t := range s.byToken {
		if t.UserID == userID && t.IsActive {
			t.IsActive = false
			t.UpdatedAt = now
		}
	}
	return nil
}

func (s *MemoryTokenStore) FindActiveByUser(ctx context.Context, userID uuid.UUID) ([]DeviceToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []DeviceToken
	for _, t := range s.byToken {
		if t.UserID == userID && t.IsActive {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *MemoryTokenStore) FindActiveByUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]DeviceToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[uuid.UUID]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}

	out := make(map[uuid.UUID][]DeviceToken)
	for _, t := range s.byToken {
		if t.IsActive && wanted[t.UserID] {
			out[t.UserID] = append(out[t.UserID], *t)
		}
	}
	return out, nil
}
