// Package feed implements the in-app notification feed.
//
// Feed items are independent of the delivery ledger: the ledger records
// dispatch attempts for audit and deduplication, while the feed holds what
// the user sees in the app. The Manager stores every notification before
// attempting real-time delivery, so a failed websocket or SSE push never
// loses the item; it simply shows up on the next feed load.
//
// Storage has in-memory and Redis implementations. Read notifications older
// than the retention cutoff are purged by a periodic sweep through
// DeleteReadBefore; unread notifications are never purged.
package feed
