package batch

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/eventkit/pkg/dispatch"
)

// CertificateIssue is one certificate ready to be announced to its holder.
type CertificateIssue struct {
	CertificateID  string
	CertificateURL string
	EventName      string
	Recipient      dispatch.Recipient
}

// DispatchCertificates announces a set of freshly issued certificates. Each
// dispatch is deduplicated by the delivery ledger, so re-running the batch
// after a partial failure only reaches holders who were missed.
func DispatchCertificates(ctx context.Context, r *Runner, d *dispatch.Dispatcher, issues []CertificateIssue) (Run, error) {
	return Process(ctx, r, "dispatch-certificates", issues, func(ctx context.Context, issue CertificateIssue) error {
		if issue.CertificateID == "" {
			return fmt.Errorf("%w: missing certificate id", ErrItemRejected)
		}
		if issue.Recipient.Email == "" {
			return fmt.Errorf("%w: certificate %s has no recipient email", ErrItemRejected, issue.CertificateID)
		}
		d.CertificateIssued(ctx, issue.CertificateID, issue.Recipient, issue.EventName, issue.CertificateURL)
		return nil
	})
}
