package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/eventkit/pkg/channel"
	"github.com/dmitrymomot/eventkit/pkg/feed"
	"github.com/dmitrymomot/eventkit/pkg/ledger"
	"github.com/dmitrymomot/eventkit/pkg/logger"
	"github.com/dmitrymomot/eventkit/pkg/mailqueue"
	"github.com/dmitrymomot/eventkit/pkg/metrics"
	"github.com/dmitrymomot/eventkit/pkg/push"
)

// Recipient identifies who a notification goes to. UserID is uuid.Nil for
// recipients without an account; such recipients get no feed entry and no
// push, only the contact-address channels.
type Recipient struct {
	UserID uuid.UUID
	Name   string
	Email  string
	Phone  string
}

// EmailEnqueuer is the slice of mailqueue.Enqueuer the dispatcher needs.
type EmailEnqueuer interface {
	Enqueue(ctx context.Context, payload any, opts ...mailqueue.EnqueueOption) error
}

// Dispatcher is the notification orchestration core. Each trigger method
// runs the same algorithm per channel: claim the ledger key, invoke the
// channel (enqueue or provider accept, never final delivery), record the
// outcome. Trigger methods never return errors and never panic outward;
// a notification failure must not break the business operation that
// triggered it.
type Dispatcher struct {
	ledger   ledger.Ledger
	email    EmailEnqueuer
	sms      channel.Sender
	whatsapp channel.Sender
	feed     *feed.Manager
	push     *push.Fanout
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSMS wires an SMS channel adapter.
func WithSMS(sender channel.Sender) Option {
	return func(d *Dispatcher) { d.sms = sender }
}

// WithWhatsApp wires a WhatsApp channel adapter.
func WithWhatsApp(sender channel.Sender) Option {
	return func(d *Dispatcher) { d.whatsapp = sender }
}

// WithFeed wires the in-app notification feed.
func WithFeed(manager *feed.Manager) Option {
	return func(d *Dispatcher) { d.feed = manager }
}

// WithPush wires the push fanout.
func WithPush(fanout *push.Fanout) Option {
	return func(d *Dispatcher) { d.push = fanout }
}

// WithMetrics wires dispatch counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithLogger sets the dispatcher logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDispatcher creates the notification dispatcher. The delivery ledger and
// the email queue are mandatory; everything else is optional and skipped
// when absent.
func NewDispatcher(lg ledger.Ledger, email EmailEnqueuer, opts ...Option) (*Dispatcher, error) {
	if lg == nil {
		return nil, ErrLedgerNil
	}
	if email == nil {
		return nil, ErrEnqueuerNil
	}

	d := &Dispatcher{
		ledger: lg,
		email:  email,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// contain is deferred at every trigger boundary. Callers are mid-transaction
// business logic; a notification failure must never reach them.
func (d *Dispatcher) contain(ctx context.Context, trigger, entityID string) {
	if r := recover(); r != nil {
		d.logger.LogAttrs(ctx, slog.LevelError, "panic in notification trigger",
			logger.Trigger(trigger),
			logger.EntityID(entityID),
			slog.Any("panic", r),
		)
	}
}

// claim records intent to send on one channel. It returns the entry id and
// true when this invocation owns the send.
func (d *Dispatcher) claim(ctx context.Context, trigger, entityType, entityID, recipient string, ch ledger.Channel) (uuid.UUID, bool) {
	entry := ledger.Entry{
		ID:         uuid.New(),
		Type:       trigger,
		Channel:    ch,
		Recipient:  recipient,
		EntityType: entityType,
		EntityID:   entityID,
	}

	claimed, err := d.ledger.Claim(ctx, entry)
	if err != nil {
		d.logger.LogAttrs(ctx, slog.LevelError, "failed to claim delivery ledger entry",
			logger.Trigger(trigger),
			logger.EntityID(entityID),
			logger.Channel(ch),
			logger.Error(err),
		)
		d.metrics.Dispatched(trigger, string(ch), "error")
		return uuid.Nil, false
	}
	if !claimed {
		d.logger.LogAttrs(ctx, slog.LevelWarn, "notification already sent, skipping",
			logger.Trigger(trigger),
			logger.EntityID(entityID),
			logger.Channel(ch),
		)
		d.metrics.Dispatched(trigger, string(ch), "duplicate")
		return uuid.Nil, false
	}
	return entry.ID, true
}

func (d *Dispatcher) markSent(ctx context.Context, entryID uuid.UUID, trigger string, ch ledger.Channel) {
	if err := d.ledger.MarkSent(ctx, entryID); err != nil {
		d.logger.LogAttrs(ctx, slog.LevelError, "failed to mark ledger entry sent",
			logger.Trigger(trigger),
			logger.Channel(ch),
			logger.Error(err),
		)
	}
	d.metrics.Dispatched(trigger, string(ch), "sent")
}

func (d *Dispatcher) markFailed(ctx context.Context, entryID uuid.UUID, trigger string, ch ledger.Channel, cause error) {
	if err := d.ledger.MarkFailed(ctx, entryID, cause.Error()); err != nil {
		d.logger.LogAttrs(ctx, slog.LevelError, "failed to mark ledger entry failed",
			logger.Trigger(trigger),
			logger.Channel(ch),
			logger.Error(err),
		)
	}
	d.metrics.Dispatched(trigger, string(ch), "failed")
}

// dispatchEmail claims the EMAIL channel and enqueues a typed mail job.
func (d *Dispatcher) dispatchEmail(ctx context.Context, trigger, entityType, entityID string, rcpt Recipient, payload any) {
	if rcpt.Email == "" {
		return
	}

	entryID, ok := d.claim(ctx, trigger, entityType, entityID, rcpt.Email, ledger.ChannelEmail)
	if !ok {
		return
	}

	if err := d.email.Enqueue(ctx, payload); err != nil {
		d.logger.LogAttrs(ctx, slog.LevelError, "failed to enqueue notification email",
			logger.Trigger(trigger),
			logger.EntityID(entityID),
			logger.Error(err),
		)
		d.markFailed(ctx, entryID, trigger, ledger.ChannelEmail, err)
		return
	}
	d.markSent(ctx, entryID, trigger, ledger.ChannelEmail)
}

// dispatchTemplate claims a phone-based channel and sends a template through
// its adapter. A disabled channel records a FAILED entry, which keeps the
// key re-claimable once the channel is switched on.
func (d *Dispatcher) dispatchTemplate(ctx context.Context, sender channel.Sender, ch ledger.Channel, trigger, entityType, entityID string, rcpt Recipient, templateID string, vars map[string]string) {
	if sender == nil || rcpt.Phone == "" {
		return
	}

	entryID, ok := d.claim(ctx, trigger, entityType, entityID, rcpt.Phone, ch)
	if !ok {
		return
	}

	result, err := sender.SendTemplate(ctx, rcpt.Phone, templateID, vars)
	switch {
	case err != nil:
		d.logger.LogAttrs(ctx, slog.LevelError, "channel send failed",
			logger.Trigger(trigger),
			logger.EntityID(entityID),
			logger.Channel(ch),
			logger.Error(err),
		)
		d.markFailed(ctx, entryID, trigger, ch, err)
	case !result.Success:
		d.markFailed(ctx, entryID, trigger, ch, fmt.Errorf("channel rejected send: %s", result.ErrorCode))
	default:
		if result.MessageID != "" {
			if err := d.ledger.SetMetadata(ctx, entryID, map[string]string{
				ledger.MessageIDMetadataKey: result.MessageID,
			}); err != nil {
				d.logger.LogAttrs(ctx, slog.LevelError, "failed to record provider message id",
					logger.Trigger(trigger),
					logger.Channel(ch),
					logger.Error(err),
				)
			}
		}
		d.markSent(ctx, entryID, trigger, ch)
	}
}

// dispatchFeed claims the IN_APP channel and creates a feed notification for
// recipients that hold an account.
func (d *Dispatcher) dispatchFeed(ctx context.Context, trigger, entityType, entityID string, rcpt Recipient, notif feed.Notification) {
	if d.feed == nil || rcpt.UserID == uuid.Nil {
		return
	}

	entryID, ok := d.claim(ctx, trigger, entityType, entityID, rcpt.UserID.String(), ledger.ChannelInApp)
	if !ok {
		return
	}

	notif.UserID = rcpt.UserID
	if err := d.feed.Send(ctx, notif); err != nil {
		d.logger.LogAttrs(ctx, slog.LevelError, "failed to create feed notification",
			logger.Trigger(trigger),
			logger.EntityID(entityID),
			logger.UserID(rcpt.UserID),
			logger.Error(err),
		)
		d.markFailed(ctx, entryID, trigger, ledger.ChannelInApp, err)
		return
	}
	d.markSent(ctx, entryID, trigger, ledger.ChannelInApp)
}

// dispatchPush fans out to the recipient's devices. Per-device ledger rows
// are written inside the fanout.
func (d *Dispatcher) dispatchPush(ctx context.Context, trigger, entityType, entityID string, rcpt Recipient, payload push.Payload) {
	if d.push == nil || rcpt.UserID == uuid.Nil {
		return
	}

	payload.Type = trigger
	payload.EntityType = entityType
	payload.EntityID = entityID

	results, err := d.push.SendToUser(ctx, rcpt.UserID, payload)
	if err != nil {
		d.logger.LogAttrs(ctx, slog.LevelError, "push fanout failed",
			logger.Trigger(trigger),
			logger.EntityID(entityID),
			logger.UserID(rcpt.UserID),
			logger.Error(err),
		)
		return
	}
	for _, r := range results {
		status := "sent"
		if !r.Success {
			status = "failed"
		}
		d.metrics.PushAttempt(string(r.Provider), status)
	}
}
