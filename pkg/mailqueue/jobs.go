package mailqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrymomot/eventkit/pkg/email"
)

// One payload type per notification trigger. The type itself is the job
// name, so dispatch code enqueues a struct and the matching handler is
// selected without string plumbing.

// PlainEmail carries pre-rendered content. The channel email adapter uses
// it for sends that do not map to a specific trigger type.
type PlainEmail struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	BodyHTML string `json:"body_html"`
}

type ReservationCreatedEmail struct {
	To            string    `json:"to"`
	AttendeeName  string    `json:"attendee_name"`
	EventName     string    `json:"event_name"`
	ReservationID string    `json:"reservation_id"`
	ExpiresAt     time.Time `json:"expires_at"`
}

type PaymentReceiptEmail struct {
	To            string `json:"to"`
	AttendeeName  string `json:"attendee_name"`
	EventName     string `json:"event_name"`
	ReservationID string `json:"reservation_id"`
	AmountCents   int64  `json:"amount_cents"`
	Currency      string `json:"currency"`
}

type ExpiryWarningEmail struct {
	To            string `json:"to"`
	AttendeeName  string `json:"attendee_name"`
	EventName     string `json:"event_name"`
	ReservationID string `json:"reservation_id"`
	MinutesLeft   int    `json:"minutes_left"`
}

type ReservationExpiredEmail struct {
	To            string `json:"to"`
	AttendeeName  string `json:"attendee_name"`
	EventName     string `json:"event_name"`
	ReservationID string `json:"reservation_id"`
}

type CertificateIssuedEmail struct {
	To             string `json:"to"`
	AttendeeName   string `json:"attendee_name"`
	EventName      string `json:"event_name"`
	CertificateID  string `json:"certificate_id"`
	CertificateURL string `json:"certificate_url"`
}

type RefundApprovedEmail struct {
	To           string `json:"to"`
	AttendeeName string `json:"attendee_name"`
	EventName    string `json:"event_name"`
	PaymentID    string `json:"payment_id"`
	AmountCents  int64  `json:"amount_cents"`
	Currency     string `json:"currency"`
}

type SessionChangedEmail struct {
	To           string `json:"to"`
	AttendeeName string `json:"attendee_name"`
	EventName    string `json:"event_name"`
	SessionName  string `json:"session_name"`
	ChangeType   string `json:"change_type"`
}

type CourtesyGrantedEmail struct {
	To           string `json:"to"`
	AttendeeName string `json:"attendee_name"`
	EventName    string `json:"event_name"`
	GrantedBy    string `json:"granted_by"`
}

type WaitlistInviteEmail struct {
	To           string    `json:"to"`
	AttendeeName string    `json:"attendee_name"`
	EventName    string    `json:"event_name"`
	InviteURL    string    `json:"invite_url"`
	ValidUntil   time.Time `json:"valid_until"`
}

type TicketTransferredEmail struct {
	To         string `json:"to"`
	SenderName string `json:"sender_name"`
	EventName  string `json:"event_name"`
	TicketID   string `json:"ticket_id"`
}

type EventReminderEmail struct {
	To           string    `json:"to"`
	AttendeeName string    `json:"attendee_name"`
	EventName    string    `json:"event_name"`
	StartsAt     time.Time `json:"starts_at"`
	Venue        string    `json:"venue"`
}

// DefaultHandlers builds the handler set covering every job type above,
// rendering each into a transactional email sent through the given sender.
func DefaultHandlers(sender email.EmailSender) []Handler {
	return []Handler{
		NewJobHandler(func(ctx context.Context, p PlainEmail) error {
			return sender.SendEmail(ctx, email.SendEmailParams{
				SendTo:   p.To,
				Subject:  p.Subject,
				BodyHTML: p.BodyHTML,
			})
		}),
		NewJobHandler(func(ctx context.Context, p ReservationCreatedEmail) error {
			return sender.SendEmail(ctx, email.SendEmailParams{
				SendTo:  p.To,
				Subject: fmt.Sprintf("Your spot at %s is held", p.EventName),
				BodyHTML: fmt.Sprintf(
					"<p>Hi %s,</p><p>Your reservation for <strong>%s</strong> is held until %s. Complete your payment to confirm it.</p>",
					p.AttendeeName, p.EventName, p.ExpiresAt.Format("Jan 2, 15:04 MST")),
				Tag: "reservation-created",
			})
		}),
		NewJobHandler(func(ctx context.Context, p PaymentReceiptEmail) error {
			return sender.SendEmail(ctx, email.SendEmailParams{
				SendTo:  p.To,
				Subject: fmt.Sprintf("Payment confirmed for %s", p.EventName),
				BodyHTML: fmt.Sprintf(
					"<p>Hi %s,</p><p>We received your payment of %s for <strong>%s</strong>. Your reservation is confirmed.</p>",
					p.AttendeeName, formatAmount(p.AmountCents, p.Currency), p.EventName),
				Tag: "payment-receipt",
			})
		}),
		NewJobHandler(func(ctx context.Context, p ExpiryWarningEmail) error {
			return sender.SendEmail(ctx, email.SendEmailParams{
				SendTo:  p.To,
				Subject: fmt.Sprintf("Your hold at %s expires in %d minutes", p.EventName, p.MinutesLeft),
				BodyHTML: fmt.Sprintf(
					"<p>Hi %s,</p><p>Your reservation for <strong>%s</strong> expires in %d minutes. Complete your payment to keep your spot.</p>",
					p.AttendeeName, p.EventName, p.MinutesLeft),
				Tag: "expiry-warning",
			})
		}),
		NewJobHandler(func(ctx context.Context, p ReservationExpiredEmail) error {
			return sender.SendEmail(ctx, email.SendEmailParams{
				SendTo:  p.To,
				Subject: fmt.Sprintf("Your hold at %s has expired", p.EventName),
				BodyHTML: fmt.Sprintf(
					"<p>Hi %s,</p><p>Your reservation for <strong>%s</strong> has expired and the spot was released. You can register again while capacity remains.</p>",
					p.AttendeeName, p.EventName),
				Tag: "reservation-expired",
			})
		}),
		NewJobHandler(func(ctx context.Context, p CertificateIssuedEmail) error {
			return sender.SendEmail(ctx, email.SendEmailParams{
				SendTo:  p.To,
				Subject: fmt.Sprintf("Your certificate for %s is ready", p.EventName),
				BodyHTML: fmt.Sprintf(
					"<p>Hi %s,</p><p>Your attendance certificate for <strong>%s</strong> is ready: <a href=%q>download it here</a>.</p>",
					p.AttendeeName, p.EventName, p.CertificateURL),
				Tag: "certificate-issued",
			})
		}),
		NewJobHandler(func(ctx context.Context, p RefundApprovedEmail) error {
			return sender.SendEmail(ctx, email.SendEmailParams{
				SendTo:  p.To,
				Subject: fmt.Sprintf("Refund approved for %s", p.EventName),
				BodyHTML: fmt.Sprintf(
					"<p>Hi %s,</p><p>Your refund of %s for <strong>%s</strong> was approved and is on its way back to your payment method.</p>",
					p.AttendeeName, formatAmount(p.AmountCents, p.Currency), p.EventName),
				Tag: "refund-approved",
			})
		}),
		NewJobHandler(func(ctx context.Context, p SessionChangedEmail) error {
			return sender.SendEmail(ctx, email.SendEmailParams{
				SendTo:  p.To,
				Subject: fmt.Sprintf("Schedule change at %s", p.EventName),
				BodyHTML: fmt.Sprintf(
					"<p>Hi %s,</p><p>The session <strong>%s</strong> at %s was %s. Check the updated schedule before you attend.</p>",
					p.AttendeeName, p.SessionName, p.EventName, p.ChangeType),
				Tag: "session-changed",
			})
		}),
		NewJobHandler(func(ctx context.Context, p CourtesyGrantedEmail) error {
			return sender.SendEmail(ctx, email.SendEmailParams{
				SendTo:  p.To,
				Subject: fmt.Sprintf("You have a courtesy ticket for %s", p.EventName),
				BodyHTML: fmt.Sprintf(
					"<p>Hi %s,</p><p>%s granted you a courtesy ticket for <strong>%s</strong>. No payment is needed.</p>",
					p.AttendeeName, p.GrantedBy, p.EventName),
				Tag: "courtesy-granted",
			})
		}),
		NewJobHandler(func(ctx context.Context, p WaitlistInviteEmail) error {
			return sender.SendEmail(ctx, email.SendEmailParams{
				SendTo:  p.To,
				Subject: fmt.Sprintf("A spot opened up at %s", p.EventName),
				BodyHTML: fmt.Sprintf(
					"<p>Hi %s,</p><p>A spot opened up at <strong>%s</strong>. <a href=%q>Claim it</a> before %s.</p>",
					p.AttendeeName, p.EventName, p.InviteURL, p.ValidUntil.Format("Jan 2, 15:04 MST")),
				Tag: "waitlist-invite",
			})
		}),
		NewJobHandler(func(ctx context.Context, p TicketTransferredEmail) error {
			return sender.SendEmail(ctx, email.SendEmailParams{
				SendTo:  p.To,
				Subject: fmt.Sprintf("A ticket for %s was transferred to you", p.EventName),
				BodyHTML: fmt.Sprintf(
					"<p>Hi,</p><p>%s transferred ticket %s for <strong>%s</strong> to you. It is now registered under this address.</p>",
					p.SenderName, p.TicketID, p.EventName),
				Tag: "ticket-transferred",
			})
		}),
		NewJobHandler(func(ctx context.Context, p EventReminderEmail) error {
			return sender.SendEmail(ctx, email.SendEmailParams{
				SendTo:  p.To,
				Subject: fmt.Sprintf("%s starts tomorrow", p.EventName),
				BodyHTML: fmt.Sprintf(
					"<p>Hi %s,</p><p><strong>%s</strong> starts %s at %s. See you there!</p>",
					p.AttendeeName, p.EventName, p.StartsAt.Format("Jan 2, 15:04 MST"), p.Venue),
				Tag: "event-reminder",
			})
		}),
	}
}

func formatAmount(cents int64, currency string) string {
	return fmt.Sprintf("%.2f %s", float64(cents)/100, currency)
}
