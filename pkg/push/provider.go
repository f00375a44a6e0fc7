package push

import (
	"context"
	"log/slog"
)

// Payload is the channel-agnostic content of one push notification. Type,
// EntityType and EntityID feed the delivery ledger key; when EntityID is
// empty the fanout falls back to the device token id.
type Payload struct {
	Type       string            `json:"type"`
	Title      string            `json:"title"`
	Body       string            `json:"body"`
	Link       string            `json:"link,omitempty"`
	EntityType string            `json:"entity_type,omitempty"`
	EntityID   string            `json:"entity_id,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
}

// Provider delivers a payload to one device endpoint. Implementations wrap
// a concrete provider SDK (FCM, APNs, Web Push); the wire protocol stays
// behind this interface.
type Provider interface {
	Push(ctx context.Context, token DeviceToken, payload Payload) error
}

// LogProvider is a development Provider that logs instead of sending.
type LogProvider struct {
	logger *slog.Logger
}

// NewLogProvider creates a logging push provider.
func NewLogProvider(logger *slog.Logger) *LogProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProvider{logger: logger}
}

func (p *LogProvider) Push(ctx context.Context, token DeviceToken, payload Payload) error {
	p.logger.InfoContext(ctx, "push notification",
		slog.String("token_id", token.ID.String()),
		slog.String("user_id", token.UserID.String()),
		slog.String("provider", string(token.Provider)),
		slog.String("type", payload.Type),
		slog.String("title", payload.Title))
	return nil
}
