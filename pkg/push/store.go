package push

import (
	"context"

	"github.com/google/uuid"
)

// TokenStore persists device tokens.
type TokenStore interface {
	// Upsert stores a token. Re-registering an existing token value updates
	// its owner and metadata instead of creating a duplicate, and reactivates
	// it. Returns the stored record.
	Upsert(ctx context.Context, token DeviceToken) (DeviceToken, error)

	// Deactivate soft-deletes a single token by its token value.
	Deactivate(ctx context.Context, token string) error

	// DeactivateAll soft-deletes every token of a user (logout-all).
	DeactivateAll(ctx context.Context, userID uuid.UUID) error

	// FindActiveByUser returns all active tokens for a user.
	FindActiveByUser(ctx context.Context, userID uuid.UUID) ([]DeviceToken, error)

	// FindActiveByUsers returns active tokens grouped by user.
	FindActiveByUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]DeviceToken, error)
}
