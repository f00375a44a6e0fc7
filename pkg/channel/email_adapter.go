package channel

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/eventkit/pkg/mailqueue"
)

// EmailEnqueuer is the slice of mailqueue.Enqueuer the adapter needs.
type EmailEnqueuer interface {
	Enqueue(ctx context.Context, payload any, opts ...mailqueue.EnqueueOption) error
}

// EmailAdapter exposes the outbound email queue through the Sender
// capability. Send and SendTemplate report enqueue success; delivery happens
// asynchronously in the mail queue worker, and final status arrives through
// provider callbacks rather than DeliveryStatus.
type EmailAdapter struct {
	enqueuer       EmailEnqueuer
	defaultSubject string
}

// EmailAdapterOption configures an EmailAdapter.
type EmailAdapterOption func(*EmailAdapter)

// WithDefaultSubject sets the subject used for plain Send calls, which carry
// only a body.
func WithDefaultSubject(subject string) EmailAdapterOption {
	return func(a *EmailAdapter) {
		if subject != "" {
			a.defaultSubject = subject
		}
	}
}

// NewEmailAdapter creates an email channel adapter on top of the mail queue.
func NewEmailAdapter(enqueuer EmailEnqueuer, opts ...EmailAdapterOption) (*EmailAdapter, error) {
	if enqueuer == nil {
		return nil, ErrEnqueuerNil
	}
	a := &EmailAdapter{
		enqueuer:       enqueuer,
		defaultSubject: "You have a new notification",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *EmailAdapter) Send(ctx context.Context, to, message string) (Result, error) {
	err := a.enqueuer.Enqueue(ctx, mailqueue.PlainEmail{
		To:       to,
		Subject:  a.defaultSubject,
		BodyHTML: message,
	})
	if err != nil {
		return Result{ErrorCode: "ENQUEUE_FAILED", Err: err}, err
	}
	return Result{Success: true}, nil
}

func (a *EmailAdapter) SendTemplate(ctx context.Context, to, templateID string, vars map[string]string) (Result, error) {
	table, err := loadTemplates()
	if err != nil {
		return Result{ErrorCode: "TEMPLATE_ERROR", Err: err}, err
	}
	tmpl, ok := table.Email[templateID]
	if !ok {
		err := fmt.Errorf("%w: email template %q", ErrTemplateNotFound, templateID)
		return Result{ErrorCode: "TEMPLATE_NOT_FOUND", Err: err}, err
	}

	err = a.enqueuer.Enqueue(ctx, mailqueue.PlainEmail{
		To:       to,
		Subject:  renderTemplate(tmpl.Subject, vars),
		BodyHTML: renderTemplate(tmpl.Body, vars),
	})
	if err != nil {
		return Result{ErrorCode: "ENQUEUE_FAILED", Err: err}, err
	}
	return Result{Success: true}, nil
}

// DeliveryStatus is not resolvable for email from the adapter side: the
// provider reports it via webhook into the delivery ledger.
func (a *EmailAdapter) DeliveryStatus(ctx context.Context, messageID string) (DeliveryStatus, error) {
	return "", ErrStatusUnavailable
}
