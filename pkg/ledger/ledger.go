package ledger

import (
	"context"

	"github.com/google/uuid"
)

// Ledger is the append-only record of notification attempts.
//
// Claim is the idempotency gate: it atomically inserts a QUEUED entry if and
// only if no live entry (QUEUED or SENT) exists for the same Key. A FAILED
// entry does not block a new claim, so a failed delivery can be re-attempted
// operationally while a duplicate send stays impossible. Callers that lose
// the claim must treat the trigger as already handled and return.
type Ledger interface {
	// Claim atomically records intent to send. Returns false when another
	// live entry already owns the key.
	Claim(ctx context.Context, e Entry) (bool, error)

	// MarkSent updates an entry to SENT and stamps SentAt.
	MarkSent(ctx context.Context, id uuid.UUID) error

	// MarkFailed updates an entry to FAILED with the downstream error message.
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error

	// WasSent reports whether a SENT entry exists for the key.
	WasSent(ctx context.Context, key Key) (bool, error)

	// Find returns all entries for a key, oldest first.
	Find(ctx context.Context, key Key) ([]Entry, error)

	// FindByMessageID locates an entry by the provider message id recorded in
	// its metadata. Used by delivery callbacks.
	FindByMessageID(ctx context.Context, messageID string) (*Entry, error)

	// SetMetadata merges metadata into an existing entry.
	SetMetadata(ctx context.Context, id uuid.UUID, metadata map[string]string) error
}
