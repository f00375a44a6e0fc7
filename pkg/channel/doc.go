// Package channel provides a uniform Sender capability over every outbound
// notification medium: transactional email (via the mail queue), SMS, and
// WhatsApp.
//
// Adapters report acceptance, not final delivery. The email adapter enqueues
// onto the outbound mail queue and succeeds when the job row exists; the
// phone-based adapters hand the message to a provider gateway and return the
// provider message id for later status correlation.
//
// SMS and WhatsApp are feature-flagged off by default. A disabled adapter
// returns Result{ErrorCode: "DISABLED"} immediately with a nil error and
// never touches its gateway, so callers can dispatch to every configured
// channel without branching on deployment config.
//
// Phone-based channels normalize recipient numbers to international E.164
// form before dispatch and reject malformed numbers with
// ErrInvalidPhoneNumber. SMS template bodies live in an embedded YAML table
// with {{name}} placeholder substitution; WhatsApp templates are passed to
// the provider verbatim since they are pre-approved on the provider side.
package channel
