// Package email provides a provider-agnostic interface for sending
// transactional emails, with a Postmark implementation for production and a
// DevSender that writes outgoing mail to disk for local development.
//
// The mail queue worker is the only production consumer: the dispatch layer
// never talks to a provider directly, it enqueues jobs and the worker sends
// them through an EmailSender.
//
// All implementations validate email parameters before sending and provide
// consistent error handling across providers.
package email
