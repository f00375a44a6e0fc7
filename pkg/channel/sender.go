package channel

import "context"

// DeliveryStatus is the provider-side lifecycle of a sent message.
type DeliveryStatus string

const (
	StatusQueued    DeliveryStatus = "QUEUED"
	StatusSent      DeliveryStatus = "SENT"
	StatusDelivered DeliveryStatus = "DELIVERED"
	StatusRead      DeliveryStatus = "READ"
	StatusFailed    DeliveryStatus = "FAILED"
)

// ErrCodeDisabled is set on results returned by adapters whose channel is
// feature-flagged off. Disabled sends are not errors: the result carries the
// code and the returned error is nil.
const ErrCodeDisabled = "DISABLED"

// Result is the outcome of one send attempt.
type Result struct {
	Success   bool
	MessageID string
	ErrorCode string
	Err       error
}

// Sender is the uniform capability every channel adapter exposes. Send and
// SendTemplate report acceptance by the channel (enqueue or provider accept),
// not final delivery; DeliveryStatus answers the latter by message id.
type Sender interface {
	Send(ctx context.Context, to, message string) (Result, error)
	SendTemplate(ctx context.Context, to, templateID string, vars map[string]string) (Result, error)
	DeliveryStatus(ctx context.Context, messageID string) (DeliveryStatus, error)
}
