package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/eventkit/pkg/logger"
)

// Manager orchestrates feed storage and real-time delivery. Notifications
// are stored first so a failed real-time push never loses the feed item.
type Manager struct {
	storage   Storage
	deliverer Deliverer
	logger    *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger for the Manager.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a new feed manager.
func NewManager(storage Storage, deliverer Deliverer, opts ...ManagerOption) (*Manager, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	if deliverer == nil {
		deliverer = NoOpDeliverer{}
	}

	m := &Manager{
		storage:   storage,
		deliverer: deliverer,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Send stores a notification and attempts best-effort real-time delivery.
func (m *Manager) Send(ctx context.Context, notif Notification) error {
	if notif.ID == uuid.Nil {
		notif.ID = uuid.New()
	}
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = time.Now()
	}

	if err := m.storage.Create(ctx, notif); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	if err := m.deliverer.Deliver(ctx, notif); err != nil {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "feed notification stored but not delivered",
			slog.String("notification_id", notif.ID.String()),
			logger.UserID(notif.UserID),
			logger.Error(err),
		)
	}
	return nil
}

// SendToUsers stores one copy of the template per user and delivers the
// batch best effort.
func (m *Manager) SendToUsers(ctx context.Context, userIDs []uuid.UUID, template Notification) error {
	notifications := make([]Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		notif := template
		notif.ID = uuid.New()
		notif.UserID = userID
		notif.CreatedAt = time.Now()

		if err := m.storage.Create(ctx, notif); err != nil {
			return fmt.Errorf("failed to store notification for user %s: %w", userID, err)
		}
		notifications = append(notifications, notif)
	}

	if err := m.deliverer.DeliverBatch(ctx, notifications); err != nil {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "feed notification batch stored but not delivered",
			slog.Int("notification_count", len(notifications)),
			logger.Error(err),
		)
	}
	return nil
}

func (m *Manager) Get(ctx context.Context, userID, notifID uuid.UUID) (*Notification, error) {
	return m.storage.Get(ctx, userID, notifID)
}

func (m *Manager) List(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]Notification, error) {
	return m.storage.List(ctx, userID, opts)
}

func (m *Manager) MarkRead(ctx context.Context, userID uuid.UUID, notifIDs ...uuid.UUID) error {
	return m.storage.MarkRead(ctx, userID, notifIDs...)
}

func (m *Manager) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return m.storage.MarkAllRead(ctx, userID)
}

func (m *Manager) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return m.storage.CountUnread(ctx, userID)
}

// DeleteReadBefore removes read notifications older than the cutoff. Called
// by the retention sweep.
func (m *Manager) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int, error) {
	return m.storage.DeleteReadBefore(ctx, cutoff)
}
