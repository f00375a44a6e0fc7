// Package push implements device token registration and push notification
// fan-out.
//
// A user may hold several active devices on different providers (FCM, APNs,
// Web Push). Fanout resolves the user to their tokens and sends to each
// device independently: one slow or failing device never blocks the rest,
// and every attempt lands in the delivery ledger with Channel=PUSH keyed by
// the device token id.
//
// Tokens are upserted on registration, so re-registering a known token
// value re-owns it for the new user instead of duplicating it, and are
// soft-deactivated on unregister or logout-all. Providers are fixed at
// construction behind the Provider interface; the concrete wire protocols
// live in the implementations.
package push
