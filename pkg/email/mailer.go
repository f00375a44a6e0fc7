package email

import "context"

// EmailSender delivers a single transactional email. The mail queue worker
// is the production caller; retry policy lives there, not in the sender.
type EmailSender interface {
	SendEmail(ctx context.Context, params SendEmailParams) error
}

// SendEmailParams describes one outbound message. Tag carries the
// notification trigger (order confirmation, expiry warning, event reminder)
// for provider-side analytics.
type SendEmailParams struct {
	SendTo   string `json:"send_to"`
	Subject  string `json:"subject"`
	BodyHTML string `json:"body_html"`
	Tag      string `json:"tag,omitempty"`
}
