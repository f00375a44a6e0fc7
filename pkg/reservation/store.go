package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists reservations and exposes the atomic status transitions the
// lifecycle engine depends on.
//
// The conditional transition methods return (false, nil) when the row was no
// longer PENDING at update time. That no-op result is the correctness guard
// against the confirm/expire race: callers must treat it as "someone else
// got there first", never as an error.
type Store interface {
	// Create stores a new reservation.
	Create(ctx context.Context, r Reservation) error

	// Get retrieves a reservation by ID.
	Get(ctx context.Context, id uuid.UUID) (*Reservation, error)

	// FindExpiringBetween returns PENDING reservations whose ExpiresAt falls
	// in the half-open window [tMin, tMax).
	FindExpiringBetween(ctx context.Context, tMin, tMax time.Time) ([]Reservation, error)

	// FindOverdue returns PENDING reservations whose ExpiresAt is at or
	// before now.
	FindOverdue(ctx context.Context, now time.Time) ([]Reservation, error)

	// TransitionToExpired conditionally updates PENDING -> EXPIRED as a
	// single atomic conditioned write.
	TransitionToExpired(ctx context.Context, id uuid.UUID) (bool, error)

	// Confirm conditionally updates PENDING -> CONFIRMED.
	Confirm(ctx context.Context, id uuid.UUID) (bool, error)

	// Cancel conditionally updates PENDING -> CANCELLED.
	Cancel(ctx context.Context, id uuid.UUID) (bool, error)
}
