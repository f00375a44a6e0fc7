package ledger

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLedger is an in-memory implementation of Ledger.
// Suitable for development and testing.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*Entry
	byKey   map[Key][]uuid.UUID
}

// NewMemoryLedger creates a new in-memory delivery ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		entries: make(map[uuid.UUID]*Entry),
		byKey:   make(map[Key][]uuid.UUID),
	}
}

func (l *MemoryLedger) Claim(ctx context.Context, e Entry) (bool, error) {
	if e.Type == "" || e.EntityType == "" || e.EntityID == "" || e.Channel == "" {
		return false, ErrInvalidEntry
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// A live (non-FAILED) entry for the key blocks the claim.
	for _, id := range l.byKey[e.Key()] {
		if l.entries[id].Status != StatusFailed {
			return false, nil
		}
	}

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.Status = StatusQueued

	cp := e
	if e.Metadata != nil {
		cp.Metadata = maps.Clone(e.Metadata)
	}
	l.entries[cp.ID] = &cp
	l.byKey[cp.Key()] = append(l.byKey[cp.Key()], cp.ID)
	return true, nil
}

func (l *MemoryLedger) MarkSent(ctx context.Context, id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[id]
	if !ok {
		return ErrEntryNotFound
	}

	now := time.Now()
	e.Status = StatusSent
	e.SentAt = &now
	e.ErrorMessage = nil
	return nil
}

func (l *MemoryLedger) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[id]
	if !ok {
		return ErrEntryNotFound
	}

	e.Status = StatusFailed
	e.ErrorMessage = &errMsg
	return nil
}

func (l *MemoryLedger) WasSent(ctx context.Context, key Key) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, id := range l.byKey[key] {
		if l.entries[id].Status == StatusSent {
			return true, nil
		}
	}
	return false, nil
}

func (l *MemoryLedger) Find(ctx context.Context, key Key) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := l.byKey[key]
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		out = append(out, *l.entries[id])
	}
	return out, nil
}

func (l *MemoryLedger) FindByMessageID(ctx context.Context, messageID string) (*Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, e := range l.entries {
		if e.Metadata[MessageIDMetadataKey] == messageID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, ErrEntryNotFound
}

func (l *MemoryLedger) SetMetadata(ctx context.Context, id uuid.UUID, metadata map[string]string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[id]
	if !ok {
		return ErrEntryNotFound
	}

	if e.Metadata == nil {
		e.Metadata = make(map[string]string, len(metadata))
	}
	maps.Copy(e.Metadata, metadata)
	return nil
}
