package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/dmitrymomot/eventkit/pkg/dispatch"
	"github.com/dmitrymomot/eventkit/pkg/feed"
	"github.com/dmitrymomot/eventkit/pkg/logger"
	"github.com/dmitrymomot/eventkit/pkg/metrics"
	"github.com/dmitrymomot/eventkit/pkg/reservation"
)

// Clock supplies the current time; injected so window math is testable.
type Clock func() time.Time

// AttendeeDirectory resolves the notification recipient and event name for
// a reservation. Business entities live with an external collaborator; the
// sweeps only need enough to address a notification.
type AttendeeDirectory interface {
	Resolve(ctx context.Context, res reservation.Reservation) (dispatch.Recipient, string, error)
}

// UpcomingEvent is what the reminder sweep needs to know about an event
// starting soon.
type UpcomingEvent struct {
	ID        string
	Name      string
	Venue     string
	StartsAt  time.Time
	Attendees []dispatch.Recipient
}

// EventSource lists events starting inside a window. Implemented by the
// business-entity collaborator.
type EventSource interface {
	StartingBetween(ctx context.Context, from, to time.Time) ([]UpcomingEvent, error)
}

// Jobs bundles the dependencies the standard sweep set needs.
type Jobs struct {
	Store      reservation.Store
	Dispatcher *dispatch.Dispatcher
	Directory  AttendeeDirectory
	Feed       feed.Storage
	Events     EventSource
	Clock      Clock
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// Sweep cadences and windows.
const (
	ExpiringSoonPeriod = 5 * time.Minute
	ExpiredPeriod      = time.Hour
	ReminderPeriod     = 24 * time.Hour
	RetentionPeriod    = 24 * time.Hour

	// The warning window: reservations expiring between 10 and 15 minutes
	// from now. Half-open, so consecutive runs never see the same
	// reservation twice even at exact boundaries.
	warnWindowMin = 10 * time.Minute
	warnWindowMax = 15 * time.Minute

	// Read feed notifications older than this are purged.
	feedRetention = 30 * 24 * time.Hour
)

func (j Jobs) clock() time.Time {
	if j.Clock != nil {
		return j.Clock()
	}
	return time.Now()
}

func (j Jobs) log() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

// Register adds the standard sweep set to the scheduler. Jobs whose
// dependencies are absent are skipped.
func (j Jobs) Register(s *Scheduler) error {
	if j.Store != nil && j.Dispatcher != nil && j.Directory != nil {
		if err := s.AddJob("expiring-soon", ExpiringSoonPeriod, j.ExpiringSoon); err != nil {
			return err
		}
		if err := s.AddJob("expired", ExpiredPeriod, j.Expired); err != nil {
			return err
		}
	}
	if j.Events != nil && j.Dispatcher != nil {
		if err := s.AddJob("event-reminder", ReminderPeriod, j.EventReminder); err != nil {
			return err
		}
	}
	if j.Feed != nil {
		if err := s.AddJob("feed-retention", RetentionPeriod, j.FeedRetention); err != nil {
			return err
		}
	}
	return nil
}

// ExpiringSoon warns attendees whose pending reservation lapses inside the
// warning window.
func (j Jobs) ExpiringSoon(ctx context.Context) error {
	now := j.clock()
	expiring, err := j.Store.FindExpiringBetween(ctx, now.Add(warnWindowMin), now.Add(warnWindowMax))
	if err != nil {
		return fmt.Errorf("failed to find expiring reservations: %w", err)
	}

	for _, res := range expiring {
		rcpt, eventName, err := j.Directory.Resolve(ctx, res)
		if err != nil {
			j.log().LogAttrs(ctx, slog.LevelError, "failed to resolve reservation attendee",
				logger.EntityID(res.ID),
				logger.Error(err),
			)
			j.Metrics.SweepItem("expiring-soon", "error")
			continue
		}

		minutesLeft := 0
		if res.ExpiresAt != nil {
			minutesLeft = int(math.Round(res.ExpiresAt.Sub(now).Minutes()))
		}
		j.Dispatcher.ReservationExpiringSoon(ctx, res, rcpt, eventName, minutesLeft)
		j.Metrics.SweepItem("expiring-soon", "notified")
	}
	return nil
}

// Expired transitions overdue pending reservations to EXPIRED and notifies
// the attendee. The transition is conditional on the reservation still
// being PENDING, so a payment that confirmed it a moment earlier wins and
// no expiry notification fires.
func (j Jobs) Expired(ctx context.Context) error {
	now := j.clock()
	overdue, err := j.Store.FindOverdue(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to find overdue reservations: %w", err)
	}

	for _, res := range overdue {
		// Resolve before transitioning: a directory failure leaves the
		// reservation PENDING so the next tick retries it, instead of
		// expiring it with the notification lost.
		rcpt, eventName, err := j.Directory.Resolve(ctx, res)
		if err != nil {
			j.log().LogAttrs(ctx, slog.LevelError, "failed to resolve reservation attendee",
				logger.EntityID(res.ID),
				logger.Error(err),
			)
			j.Metrics.SweepItem("expired", "error")
			continue
		}

		transitioned, err := j.Store.TransitionToExpired(ctx, res.ID)
		if err != nil {
			j.log().LogAttrs(ctx, slog.LevelError, "failed to expire reservation",
				logger.EntityID(res.ID),
				logger.Error(err),
			)
			j.Metrics.SweepItem("expired", "error")
			continue
		}
		if !transitioned {
			// Lost the race to a concurrent confirmation or cancellation.
			j.Metrics.SweepItem("expired", "skipped")
			continue
		}

		res.Status = reservation.StatusExpired
		j.Dispatcher.ReservationExpired(ctx, res, rcpt, eventName)
		j.Metrics.SweepItem("expired", "transitioned")
	}
	return nil
}

// EventReminder notifies every attendee of events starting tomorrow.
func (j Jobs) EventReminder(ctx context.Context) error {
	now := j.clock()
	events, err := j.Events.StartingBetween(ctx, now.Add(24*time.Hour), now.Add(48*time.Hour))
	if err != nil {
		return fmt.Errorf("failed to list upcoming events: %w", err)
	}

	for _, ev := range events {
		for _, rcpt := range ev.Attendees {
			j.Dispatcher.EventReminder(ctx, ev.ID, rcpt, ev.Name, ev.Venue, ev.StartsAt)
			j.Metrics.SweepItem("event-reminder", "notified")
		}
	}
	return nil
}

// FeedRetention purges read feed notifications older than the retention
// cutoff.
func (j Jobs) FeedRetention(ctx context.Context) error {
	cutoff := j.clock().Add(-feedRetention)
	deleted, err := j.Feed.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to purge read feed notifications: %w", err)
	}

	if deleted > 0 {
		j.log().LogAttrs(ctx, slog.LevelInfo, "purged read feed notifications",
			slog.Int("deleted", deleted),
			slog.Time("cutoff", cutoff),
		)
	}
	return nil
}
