package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event names published by the ticketing collaborators.
const (
	NameReservationCreated = "reservation.created"
	NamePaymentCompleted   = "payment.completed"
	NameCertificateIssued  = "certificate.issued"
	NameRefundApproved     = "refund.approved"
	NameSessionChanged     = "session.changed"
	NameCourtesyGranted    = "courtesy.granted"
	NameWaitlistInvited    = "waitlist.invited"
	NameTicketTransferred  = "ticket.transferred"
)

// Event is the envelope collaborators publish to the notification topic.
// EntityID identifies the subject (reservation, certificate, ticket, ...)
// and Data carries the name-specific payload.
type Event struct {
	Name       string          `json:"name"`
	EntityID   string          `json:"entity_id"`
	UserID     uuid.UUID       `json:"user_id,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// Recipient identifies who a notification event addresses. Collaborators
// resolve attendee contact details before publishing so the dispatcher
// never reaches back into their stores.
type Recipient struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Phone  string    `json:"phone,omitempty"`
}
