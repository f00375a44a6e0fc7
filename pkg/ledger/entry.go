package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Channel is a delivery medium for a notification attempt.
type Channel string

const (
	ChannelEmail    Channel = "EMAIL"
	ChannelSMS      Channel = "SMS"
	ChannelWhatsApp Channel = "WHATSAPP"
	ChannelPush     Channel = "PUSH"
	ChannelInApp    Channel = "IN_APP"
)

// Status is the state of a delivery attempt.
type Status string

const (
	StatusQueued Status = "QUEUED"
	StatusSent   Status = "SENT"
	StatusFailed Status = "FAILED"
)

// Key identifies the idempotency scope of a notification: one logical send
// per (trigger type, entity type, entity id, channel).
type Key struct {
	Type       string
	EntityType string
	EntityID   string
	Channel    Channel
}

// Entry is one row of the append-only delivery ledger. Entries are never
// deleted; they serve both as the audit trail and as the deduplication
// record for trigger idempotency.
type Entry struct {
	ID           uuid.UUID         `json:"id"`
	Type         string            `json:"type"`
	Channel      Channel           `json:"channel"`
	Recipient    string            `json:"recipient"`
	EntityType   string            `json:"entity_type"`
	EntityID     string            `json:"entity_id"`
	Status       Status            `json:"status"`
	ErrorMessage *string           `json:"error_message,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	SentAt       *time.Time        `json:"sent_at,omitempty"`
}

// Key returns the idempotency key of the entry.
func (e Entry) Key() Key {
	return Key{Type: e.Type, EntityType: e.EntityType, EntityID: e.EntityID, Channel: e.Channel}
}

// MessageIDMetadataKey is the metadata key under which adapters record the
// provider message id, used to correlate delivery callbacks.
const MessageIDMetadataKey = "message_id"
