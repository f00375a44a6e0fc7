package feed

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Storage handles feed notification persistence and retrieval.
type Storage interface {
	// Create stores a new notification.
	Create(ctx context.Context, notif Notification) error

	// Get retrieves a single notification.
	Get(ctx context.Context, userID, notifID uuid.UUID) (*Notification, error)

	// List returns notifications for a user, newest first.
	List(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]Notification, error)

	// MarkRead marks the given notifications as read.
	MarkRead(ctx context.Context, userID uuid.UUID, notifIDs ...uuid.UUID) error

	// MarkAllRead marks every unread notification of the user as read.
	MarkAllRead(ctx context.Context, userID uuid.UUID) error

	// CountUnread returns the unread count for a user.
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)

	// DeleteReadBefore removes notifications that are read and were created
	// before the cutoff, returning how many were removed. Used by the
	// retention sweep.
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// ListOptions provides filtering and pagination for listing notifications.
type ListOptions struct {
	Limit      int        // Maximum number of notifications to return (0 = no limit)
	Offset     int        // Number of notifications to skip for pagination
	OnlyUnread bool       // When true, only return unread notifications
	Since      *time.Time // If set, only return notifications created after this time
}
