package push

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Registry manages device token registration on top of a TokenStore.
type Registry struct {
	store TokenStore
}

// NewRegistry creates a device token registry.
func NewRegistry(store TokenStore) (*Registry, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	return &Registry{store: store}, nil
}

// Register upserts a device token. Registering a token value that already
// exists re-owns it for the given user instead of duplicating it.
func (r *Registry) Register(ctx context.Context, userID uuid.UUID, token string, platform Platform, provider ProviderName, deviceInfo string) (DeviceToken, error) {
	stored, err := r.store.Upsert(ctx, DeviceToken{
		UserID:     userID,
		Token:      token,
		Platform:   platform,
		Provider:   provider,
		DeviceInfo: deviceInfo,
	})
	if err != nil {
		return DeviceToken{}, fmt.Errorf("failed to register device token: %w", err)
	}
	return stored, nil
}

// Unregister soft-deactivates a single token.
func (r *Registry) Unregister(ctx context.Context, token string) error {
	return r.store.Deactivate(ctx, token)
}

// UnregisterAll soft-deactivates every token of a user, for logout-all.
func (r *Registry) UnregisterAll(ctx context.Context, userID uuid.UUID) error {
	return r.store.DeactivateAll(ctx, userID)
}
