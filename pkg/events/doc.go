// Package events bridges the ticketing platform's domain events into
// notification dispatches over Kafka.
//
// Collaborator services that own reservations, payments, and tickets
// publish Event envelopes with the Producer; the notification service runs
// a Consumer that decodes each message and routes it through the Bridge to
// the matching dispatch trigger. Unknown event names are skipped, so
// producers may ship new events ahead of this service.
//
// Messages are keyed by entity ID, keeping the events of one entity on one
// partition in publish order. A message that fails to decode or dispatch is
// committed regardless: the delivery ledger already makes redelivery
// harmless, and skipping beats stalling the partition behind one poison
// message.
package events
