package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/eventkit/pkg/feed"
	"github.com/dmitrymomot/eventkit/pkg/ledger"
	"github.com/dmitrymomot/eventkit/pkg/mailqueue"
	"github.com/dmitrymomot/eventkit/pkg/push"
	"github.com/dmitrymomot/eventkit/pkg/reservation"
)

// Trigger names, recorded as the Type of every ledger entry they produce.
const (
	TriggerReservationCreated  = "RESERVATION_CREATED"
	TriggerPaymentConfirmed    = "PAYMENT_CONFIRMED"
	TriggerReservationExpiring = "RESERVATION_EXPIRING"
	TriggerReservationExpired  = "RESERVATION_EXPIRED"
	TriggerCertificateIssued   = "CERTIFICATE_ISSUED"
	TriggerRefundApproved      = "REFUND_APPROVED"
	TriggerSessionChanged      = "SESSION_CHANGED"
	TriggerCourtesyGranted     = "COURTESY_GRANTED"
	TriggerWaitlistInvited     = "WAITLIST_INVITED"
	TriggerTicketTransferred   = "TICKET_TRANSFERRED"
	TriggerEventReminder       = "EVENT_REMINDER"
)

// Ledger entity types.
const (
	EntityReservation = "RESERVATION"
	EntityPayment     = "PAYMENT"
	EntityCertificate = "CERTIFICATE"
	EntitySession     = "SESSION"
	EntityTicket      = "TICKET"
	EntityInvite      = "WAITLIST_INVITE"
	EntityEvent       = "EVENT"
)

// ReservationCreated notifies the attendee that their spot is held and how
// long the hold lasts.
func (d *Dispatcher) ReservationCreated(ctx context.Context, res reservation.Reservation, rcpt Recipient, eventName string) {
	defer d.contain(ctx, TriggerReservationCreated, res.ID.String())

	expiresAt := time.Now()
	if res.ExpiresAt != nil {
		expiresAt = *res.ExpiresAt
	}

	d.dispatchEmail(ctx, TriggerReservationCreated, EntityReservation, res.ID.String(), rcpt, mailqueue.ReservationCreatedEmail{
		To:            rcpt.Email,
		AttendeeName:  rcpt.Name,
		EventName:     eventName,
		ReservationID: res.ID.String(),
		ExpiresAt:     expiresAt,
	})
	d.dispatchFeed(ctx, TriggerReservationCreated, EntityReservation, res.ID.String(), rcpt, feed.Notification{
		Type:    feed.TypeInfo,
		Title:   "Reservation held",
		Message: fmt.Sprintf("Your spot at %s is held. Complete payment to confirm it.", eventName),
	})
}

// PaymentCompleted confirms the reservation to the attendee after payment.
func (d *Dispatcher) PaymentCompleted(ctx context.Context, res reservation.Reservation, rcpt Recipient, eventName string, amountCents int64, currency string) {
	defer d.contain(ctx, TriggerPaymentConfirmed, res.ID.String())

	d.dispatchEmail(ctx, TriggerPaymentConfirmed, EntityReservation, res.ID.String(), rcpt, mailqueue.PaymentReceiptEmail{
		To:            rcpt.Email,
		AttendeeName:  rcpt.Name,
		EventName:     eventName,
		ReservationID: res.ID.String(),
		AmountCents:   amountCents,
		Currency:      currency,
	})
	d.dispatchFeed(ctx, TriggerPaymentConfirmed, EntityReservation, res.ID.String(), rcpt, feed.Notification{
		Type:    feed.TypeSuccess,
		Title:   "Payment confirmed",
		Message: fmt.Sprintf("Your reservation for %s is confirmed.", eventName),
	})
	d.dispatchPush(ctx, TriggerPaymentConfirmed, EntityReservation, res.ID.String(), rcpt, push.Payload{
		Title: "Payment confirmed",
		Body:  fmt.Sprintf("You're in! Your spot at %s is confirmed.", eventName),
	})
}

// ReservationExpiringSoon warns the attendee that their hold is about to
// lapse. Fired by the expiring-soon sweep.
func (d *Dispatcher) ReservationExpiringSoon(ctx context.Context, res reservation.Reservation, rcpt Recipient, eventName string, minutesLeft int) {
	defer d.contain(ctx, TriggerReservationExpiring, res.ID.String())

	d.dispatchEmail(ctx, TriggerReservationExpiring, EntityReservation, res.ID.String(), rcpt, mailqueue.ExpiryWarningEmail{
		To:            rcpt.Email,
		AttendeeName:  rcpt.Name,
		EventName:     eventName,
		ReservationID: res.ID.String(),
		MinutesLeft:   minutesLeft,
	})
	d.dispatchTemplate(ctx, d.sms, ledger.ChannelSMS, TriggerReservationExpiring, EntityReservation, res.ID.String(), rcpt, "expiry_warning", map[string]string{
		"name":    rcpt.Name,
		"event":   eventName,
		"minutes": strconv.Itoa(minutesLeft),
	})
	d.dispatchPush(ctx, TriggerReservationExpiring, EntityReservation, res.ID.String(), rcpt, push.Payload{
		Title: "Your hold expires soon",
		Body:  fmt.Sprintf("Your spot at %s expires in %d minutes.", eventName, minutesLeft),
	})
}

// ReservationExpired informs the attendee that the hold lapsed and the spot
// was released. Fired by the expired sweep after a successful transition.
func (d *Dispatcher) ReservationExpired(ctx context.Context, res reservation.Reservation, rcpt Recipient, eventName string) {
	defer d.contain(ctx, TriggerReservationExpired, res.ID.String())

	d.dispatchEmail(ctx, TriggerReservationExpired, EntityReservation, res.ID.String(), rcpt, mailqueue.ReservationExpiredEmail{
		To:            rcpt.Email,
		AttendeeName:  rcpt.Name,
		EventName:     eventName,
		ReservationID: res.ID.String(),
	})
	d.dispatchFeed(ctx, TriggerReservationExpired, EntityReservation, res.ID.String(), rcpt, feed.Notification{
		Type:    feed.TypeWarning,
		Title:   "Reservation expired",
		Message: fmt.Sprintf("Your hold at %s expired and the spot was released.", eventName),
	})
}

// CertificateIssued tells the attendee their certificate is ready.
func (d *Dispatcher) CertificateIssued(ctx context.Context, certificateID string, rcpt Recipient, eventName, certificateURL string) {
	defer d.contain(ctx, TriggerCertificateIssued, certificateID)

	d.dispatchEmail(ctx, TriggerCertificateIssued, EntityCertificate, certificateID, rcpt, mailqueue.CertificateIssuedEmail{
		To:             rcpt.Email,
		AttendeeName:   rcpt.Name,
		EventName:      eventName,
		CertificateID:  certificateID,
		CertificateURL: certificateURL,
	})
	d.dispatchFeed(ctx, TriggerCertificateIssued, EntityCertificate, certificateID, rcpt, feed.Notification{
		Type:    feed.TypeSuccess,
		Title:   "Certificate ready",
		Message: fmt.Sprintf("Your certificate for %s is ready to download.", eventName),
		Link:    certificateURL,
	})
	d.dispatchPush(ctx, TriggerCertificateIssued, EntityCertificate, certificateID, rcpt, push.Payload{
		Title: "Certificate ready",
		Body:  fmt.Sprintf("Your certificate for %s is ready.", eventName),
		Link:  certificateURL,
	})
}

// RefundApproved informs the attendee that their refund is on its way.
func (d *Dispatcher) RefundApproved(ctx context.Context, paymentID string, rcpt Recipient, eventName string, amountCents int64, currency string) {
	defer d.contain(ctx, TriggerRefundApproved, paymentID)

	d.dispatchEmail(ctx, TriggerRefundApproved, EntityPayment, paymentID, rcpt, mailqueue.RefundApprovedEmail{
		To:           rcpt.Email,
		AttendeeName: rcpt.Name,
		EventName:    eventName,
		PaymentID:    paymentID,
		AmountCents:  amountCents,
		Currency:     currency,
	})
	d.dispatchFeed(ctx, TriggerRefundApproved, EntityPayment, paymentID, rcpt, feed.Notification{
		Type:    feed.TypeInfo,
		Title:   "Refund approved",
		Message: fmt.Sprintf("Your refund for %s was approved.", eventName),
	})
}

// SessionChanged notifies one attendee about a schedule change. Callers fan
// this out across affected attendees, one call per recipient.
func (d *Dispatcher) SessionChanged(ctx context.Context, sessionID string, rcpt Recipient, eventName, sessionName, changeType string) {
	defer d.contain(ctx, TriggerSessionChanged, sessionID)

	// The session entity is shared across recipients; scope the ledger key
	// per recipient so each attendee gets exactly one notification.
	entityID := sessionID + ":" + recipientScope(rcpt)

	d.dispatchEmail(ctx, TriggerSessionChanged, EntitySession, entityID, rcpt, mailqueue.SessionChangedEmail{
		To:           rcpt.Email,
		AttendeeName: rcpt.Name,
		EventName:    eventName,
		SessionName:  sessionName,
		ChangeType:   changeType,
	})
	d.dispatchFeed(ctx, TriggerSessionChanged, EntitySession, entityID, rcpt, feed.Notification{
		Type:    feed.TypeWarning,
		Title:   "Schedule change",
		Message: fmt.Sprintf("The session %s at %s was %s.", sessionName, eventName, changeType),
	})
	d.dispatchPush(ctx, TriggerSessionChanged, EntitySession, entityID, rcpt, push.Payload{
		Title: "Schedule change",
		Body:  fmt.Sprintf("%s at %s was %s.", sessionName, eventName, changeType),
	})
}

// CourtesyGranted informs the recipient of a complimentary ticket.
func (d *Dispatcher) CourtesyGranted(ctx context.Context, ticketID string, rcpt Recipient, eventName, grantedBy string) {
	defer d.contain(ctx, TriggerCourtesyGranted, ticketID)

	d.dispatchEmail(ctx, TriggerCourtesyGranted, EntityTicket, ticketID, rcpt, mailqueue.CourtesyGrantedEmail{
		To:           rcpt.Email,
		AttendeeName: rcpt.Name,
		EventName:    eventName,
		GrantedBy:    grantedBy,
	})
	d.dispatchFeed(ctx, TriggerCourtesyGranted, EntityTicket, ticketID, rcpt, feed.Notification{
		Type:    feed.TypeSuccess,
		Title:   "Courtesy ticket",
		Message: fmt.Sprintf("You received a courtesy ticket for %s.", eventName),
	})
}

// WaitlistInvited tells a waitlisted person a spot opened up.
func (d *Dispatcher) WaitlistInvited(ctx context.Context, inviteID string, rcpt Recipient, eventName, inviteURL string, validUntil time.Time) {
	defer d.contain(ctx, TriggerWaitlistInvited, inviteID)

	d.dispatchEmail(ctx, TriggerWaitlistInvited, EntityInvite, inviteID, rcpt, mailqueue.WaitlistInviteEmail{
		To:           rcpt.Email,
		AttendeeName: rcpt.Name,
		EventName:    eventName,
		InviteURL:    inviteURL,
		ValidUntil:   validUntil,
	})
	d.dispatchTemplate(ctx, d.sms, ledger.ChannelSMS, TriggerWaitlistInvited, EntityInvite, inviteID, rcpt, "waitlist_invite", map[string]string{
		"name":        rcpt.Name,
		"event":       eventName,
		"url":         inviteURL,
		"valid_until": validUntil.Format("Jan 2, 15:04 MST"),
	})
	d.dispatchPush(ctx, TriggerWaitlistInvited, EntityInvite, inviteID, rcpt, push.Payload{
		Title: "A spot opened up",
		Body:  fmt.Sprintf("A spot opened up at %s. Claim it before it's gone.", eventName),
		Link:  inviteURL,
	})
}

// TicketTransferred tells the receiving party a ticket is now theirs.
func (d *Dispatcher) TicketTransferred(ctx context.Context, ticketID string, rcpt Recipient, eventName, senderName string) {
	defer d.contain(ctx, TriggerTicketTransferred, ticketID)

	d.dispatchEmail(ctx, TriggerTicketTransferred, EntityTicket, ticketID, rcpt, mailqueue.TicketTransferredEmail{
		To:         rcpt.Email,
		SenderName: senderName,
		EventName:  eventName,
		TicketID:   ticketID,
	})
	d.dispatchFeed(ctx, TriggerTicketTransferred, EntityTicket, ticketID, rcpt, feed.Notification{
		Type:    feed.TypeInfo,
		Title:   "Ticket received",
		Message: fmt.Sprintf("%s transferred a ticket for %s to you.", senderName, eventName),
	})
}

// EventReminder reminds an attendee the event starts soon. Fired by the
// daily reminder sweep.
func (d *Dispatcher) EventReminder(ctx context.Context, eventID string, rcpt Recipient, eventName, venue string, startsAt time.Time) {
	defer d.contain(ctx, TriggerEventReminder, eventID)

	entityID := eventID + ":" + recipientScope(rcpt)

	d.dispatchEmail(ctx, TriggerEventReminder, EntityEvent, entityID, rcpt, mailqueue.EventReminderEmail{
		To:           rcpt.Email,
		AttendeeName: rcpt.Name,
		EventName:    eventName,
		StartsAt:     startsAt,
		Venue:        venue,
	})
	d.dispatchPush(ctx, TriggerEventReminder, EntityEvent, entityID, rcpt, push.Payload{
		Title: fmt.Sprintf("%s starts soon", eventName),
		Body:  fmt.Sprintf("Starts %s at %s.", startsAt.Format("Jan 2, 15:04"), venue),
	})
}

// recipientScope derives a stable per-recipient suffix for ledger keys of
// shared entities.
func recipientScope(rcpt Recipient) string {
	if rcpt.UserID != uuid.Nil {
		return rcpt.UserID.String()
	}
	if rcpt.Email != "" {
		return rcpt.Email
	}
	return rcpt.Phone
}
