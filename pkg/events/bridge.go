package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/eventkit/pkg/dispatch"
	"github.com/dmitrymomot/eventkit/pkg/reservation"
)

// Handler processes one decoded event.
type Handler interface {
	Handle(ctx context.Context, evt Event) error
}

// Bridge translates published events into notification dispatches. Unknown
// event names are logged and skipped so collaborators can roll out new
// events before this service understands them.
type Bridge struct {
	dispatcher *dispatch.Dispatcher
	store      reservation.Store
	logger     *slog.Logger
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithBridgeLogger sets the bridge logger.
func WithBridgeLogger(l *slog.Logger) BridgeOption {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBridge creates a Bridge. The reservation store is consulted for
// reservation-scoped events so notifications always reflect current state.
func NewBridge(d *dispatch.Dispatcher, store reservation.Store, opts ...BridgeOption) (*Bridge, error) {
	if d == nil {
		return nil, ErrDispatcherNil
	}
	if store == nil {
		return nil, ErrStoreNil
	}

	b := &Bridge{
		dispatcher: d,
		store:      store,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

type reservationPayload struct {
	Recipient Recipient `json:"recipient"`
	EventName string    `json:"event_name"`
}

type paymentPayload struct {
	Recipient   Recipient `json:"recipient"`
	EventName   string    `json:"event_name"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
}

type certificatePayload struct {
	Recipient      Recipient `json:"recipient"`
	EventName      string    `json:"event_name"`
	CertificateURL string    `json:"certificate_url"`
}

type refundPayload struct {
	Recipient   Recipient `json:"recipient"`
	EventName   string    `json:"event_name"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
}

type sessionPayload struct {
	Recipient   Recipient `json:"recipient"`
	EventName   string    `json:"event_name"`
	SessionName string    `json:"session_name"`
	ChangeType  string    `json:"change_type"`
}

type courtesyPayload struct {
	Recipient Recipient `json:"recipient"`
	EventName string    `json:"event_name"`
	GrantedBy string    `json:"granted_by"`
}

type waitlistPayload struct {
	Recipient  Recipient `json:"recipient"`
	EventName  string    `json:"event_name"`
	InviteURL  string    `json:"invite_url"`
	ValidUntil time.Time `json:"valid_until"`
}

type transferPayload struct {
	Recipient  Recipient `json:"recipient"`
	EventName  string    `json:"event_name"`
	SenderName string    `json:"sender_name"`
}

// Handle routes one event to the matching dispatcher trigger.
func (b *Bridge) Handle(ctx context.Context, evt Event) error {
	switch evt.Name {
	case NameReservationCreated:
		var p reservationPayload
		res, err := b.decodeReservation(ctx, evt, &p)
		if err != nil {
			return err
		}
		b.dispatcher.ReservationCreated(ctx, *res, toRecipient(p.Recipient), p.EventName)

	case NamePaymentCompleted:
		var p paymentPayload
		res, err := b.decodeReservation(ctx, evt, &p)
		if err != nil {
			return err
		}
		b.dispatcher.PaymentCompleted(ctx, *res, toRecipient(p.Recipient), p.EventName, p.AmountCents, p.Currency)

	case NameCertificateIssued:
		var p certificatePayload
		if err := decode(evt, &p); err != nil {
			return err
		}
		b.dispatcher.CertificateIssued(ctx, evt.EntityID, toRecipient(p.Recipient), p.EventName, p.CertificateURL)

	case NameRefundApproved:
		var p refundPayload
		if err := decode(evt, &p); err != nil {
			return err
		}
		b.dispatcher.RefundApproved(ctx, evt.EntityID, toRecipient(p.Recipient), p.EventName, p.AmountCents, p.Currency)

	case NameSessionChanged:
		var p sessionPayload
		if err := decode(evt, &p); err != nil {
			return err
		}
		b.dispatcher.SessionChanged(ctx, evt.EntityID, toRecipient(p.Recipient), p.EventName, p.SessionName, p.ChangeType)

	case NameCourtesyGranted:
		var p courtesyPayload
		if err := decode(evt, &p); err != nil {
			return err
		}
		b.dispatcher.CourtesyGranted(ctx, evt.EntityID, toRecipient(p.Recipient), p.EventName, p.GrantedBy)

	case NameWaitlistInvited:
		var p waitlistPayload
		if err := decode(evt, &p); err != nil {
			return err
		}
		b.dispatcher.WaitlistInvited(ctx, evt.EntityID, toRecipient(p.Recipient), p.EventName, p.InviteURL, p.ValidUntil)

	case NameTicketTransferred:
		var p transferPayload
		if err := decode(evt, &p); err != nil {
			return err
		}
		b.dispatcher.TicketTransferred(ctx, evt.EntityID, toRecipient(p.Recipient), p.EventName, p.SenderName)

	default:
		b.logger.LogAttrs(ctx, slog.LevelWarn, "skipping unknown event",
			slog.String("event", evt.Name),
			slog.String("entity_id", evt.EntityID),
		)
	}
	return nil
}

// decodeReservation decodes the payload and loads the referenced
// reservation.
func (b *Bridge) decodeReservation(ctx context.Context, evt Event, payload any) (*reservation.Reservation, error) {
	if err := decode(evt, payload); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(evt.EntityID)
	if err != nil {
		return nil, fmt.Errorf("%w: event %s has non-uuid entity id %q", ErrInvalidPayload, evt.Name, evt.EntityID)
	}
	res, err := b.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load reservation %s for event %s: %w", id, evt.Name, err)
	}
	return res, nil
}

func decode(evt Event, payload any) error {
	if len(evt.Data) == 0 {
		return fmt.Errorf("%w: event %s has no data", ErrInvalidPayload, evt.Name)
	}
	if err := json.Unmarshal(evt.Data, payload); err != nil {
		return fmt.Errorf("%w: event %s: %v", ErrInvalidPayload, evt.Name, err)
	}
	return nil
}

func toRecipient(r Recipient) dispatch.Recipient {
	return dispatch.Recipient{
		UserID: r.UserID,
		Name:   r.Name,
		Email:  r.Email,
		Phone:  r.Phone,
	}
}
