package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/eventkit/pkg/ledger"
)

// DeviceResult is the outcome of one per-device send attempt.
type DeviceResult struct {
	TokenID  uuid.UUID
	Provider ProviderName
	Platform Platform
	Success  bool
	Err      error
}

// EntityTypeDeviceToken is the ledger entity type for per-device fanout
// rows. The fanout keys every attempt by the device token id so that each
// device has its own live ledger row; the business entity, when the payload
// carries one, is preserved in the entry metadata.
const EntityTypeDeviceToken = "DEVICE_TOKEN"

// Fanout resolves users to their active device tokens and sends one push
// per device. A failure on one device never blocks the others, and every
// attempt is recorded in the delivery ledger with Channel=PUSH.
type Fanout struct {
	store     TokenStore
	providers map[ProviderName]Provider
	ledger    ledger.Ledger
	logger    *slog.Logger
}

// FanoutOption configures a Fanout.
type FanoutOption func(*Fanout)

// WithFanoutLogger sets the logger for the fanout.
func WithFanoutLogger(logger *slog.Logger) FanoutOption {
	return func(f *Fanout) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFanout creates a push fanout. The provider set is fixed at
// construction: tokens are routed by their ProviderName and a token naming
// an unconfigured provider fails that device only.
func NewFanout(store TokenStore, lg ledger.Ledger, providers map[ProviderName]Provider, opts ...FanoutOption) (*Fanout, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	if lg == nil {
		return nil, ErrLedgerNil
	}

	f := &Fanout{
		store:     store,
		providers: providers,
		ledger:    lg,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// SendToUser pushes the payload to every active device of the user,
// returning one result per device.
func (f *Fanout) SendToUser(ctx context.Context, userID uuid.UUID, payload Payload) ([]DeviceResult, error) {
	tokens, err := f.store.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve device tokens for user %s: %w", userID, err)
	}

	results := make([]DeviceResult, 0, len(tokens))
	for _, token := range tokens {
		results = append(results, f.sendToDevice(ctx, token, payload))
	}
	return results, nil
}

// SendToUsers performs the fan-out across many recipients in one pass,
// grouping per-device results by user id.
func (f *Fanout) SendToUsers(ctx context.Context, userIDs []uuid.UUID, payload Payload) (map[uuid.UUID][]DeviceResult, error) {
	byUser, err := f.store.FindActiveByUsers(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve device tokens: %w", err)
	}

	out := make(map[uuid.UUID][]DeviceResult, len(byUser))
	for userID, tokens := range byUser {
		results := make([]DeviceResult, 0, len(tokens))
		for _, token := range tokens {
			results = append(results, f.sendToDevice(ctx, token, payload))
		}
		out[userID] = results
	}
	return out, nil
}

func (f *Fanout) sendToDevice(ctx context.Context, token DeviceToken, payload Payload) DeviceResult {
	result := DeviceResult{
		TokenID:  token.ID,
		Provider: token.Provider,
		Platform: token.Platform,
	}

	metadata := map[string]string{"platform": string(token.Platform)}
	if payload.EntityType != "" {
		metadata["entity_type"] = payload.EntityType
	}
	if payload.EntityID != "" {
		metadata["entity_id"] = payload.EntityID
	}

	entry := ledger.Entry{
		ID:         uuid.New(),
		Type:       payload.Type,
		Channel:    ledger.ChannelPush,
		Recipient:  token.Token,
		EntityType: EntityTypeDeviceToken,
		EntityID:   token.ID.String(),
		Metadata:   metadata,
	}

	claimed, err := f.ledger.Claim(ctx, entry)
	if err != nil {
		result.Err = fmt.Errorf("failed to record push attempt: %w", err)
		return result
	}
	if !claimed {
		// A live ledger row already covers this type+device pair, so the
		// device was already notified by a concurrent invocation.
		f.logger.WarnContext(ctx, "push already delivered to device",
			slog.String("type", payload.Type),
			slog.String("token_id", token.ID.String()))
		result.Success = true
		return result
	}

	provider, ok := f.providers[token.Provider]
	if !ok {
		result.Err = fmt.Errorf("%w: %s", ErrProviderNotConfigured, token.Provider)
		f.markFailed(ctx, entry.ID, result.Err)
		return result
	}

	if err := provider.Push(ctx, token, payload); err != nil {
		result.Err = err
		f.markFailed(ctx, entry.ID, err)
		if errors.Is(err, ErrTokenRejected) {
			// The provider declared the token dead; deactivate it so the
			// next fanout does not resolve it at all.
			if derr := f.store.Deactivate(ctx, token.Token); derr != nil {
				f.logger.ErrorContext(ctx, "failed to deactivate rejected token",
					slog.String("token_id", token.ID.String()),
					slog.String("error", derr.Error()))
			} else {
				f.logger.InfoContext(ctx, "deactivated rejected device token",
					slog.String("token_id", token.ID.String()),
					slog.String("provider", string(token.Provider)))
			}
			return result
		}
		f.logger.ErrorContext(ctx, "push delivery failed",
			slog.String("type", payload.Type),
			slog.String("token_id", token.ID.String()),
			slog.String("provider", string(token.Provider)),
			slog.String("error", err.Error()))
		return result
	}

	if err := f.ledger.MarkSent(ctx, entry.ID); err != nil {
		f.logger.ErrorContext(ctx, "failed to mark push ledger entry sent",
			slog.String("entry_id", entry.ID.String()),
			slog.String("error", err.Error()))
	}
	result.Success = true
	return result
}

func (f *Fanout) markFailed(ctx context.Context, entryID uuid.UUID, cause error) {
	if err := f.ledger.MarkFailed(ctx, entryID, cause.Error()); err != nil {
		f.logger.ErrorContext(ctx, "failed to mark push ledger entry failed",
			slog.String("entry_id", entryID.String()),
			slog.String("error", err.Error()))
	}
}
