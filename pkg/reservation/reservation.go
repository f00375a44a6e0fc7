package reservation

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a reservation.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusExpired || s == StatusCancelled
}

// CanTransitionTo reports whether a transition from s to target is legal.
// The only legal transitions are PENDING to one of the terminal states.
func (s Status) CanTransitionTo(target Status) bool {
	if s != StatusPending {
		return false
	}
	return target.Terminal()
}

// Reservation represents a time-bounded hold on event inventory tied to a
// registration. ExpiresAt is only meaningful while the reservation is
// PENDING; it is cleared once the reservation reaches a terminal state.
type Reservation struct {
	ID         uuid.UUID  `json:"id"`
	EventID    uuid.UUID  `json:"event_id"`
	AttendeeID uuid.UUID  `json:"attendee_id"`
	Status     Status     `json:"status"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Attended   bool       `json:"attended"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// New creates a PENDING reservation holding inventory until now+holdWindow.
func New(eventID, attendeeID uuid.UUID, holdWindow time.Duration) Reservation {
	now := time.Now()
	expires := now.Add(holdWindow)
	return Reservation{
		ID:         uuid.New(),
		EventID:    eventID,
		AttendeeID: attendeeID,
		Status:     StatusPending,
		ExpiresAt:  &expires,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
