// Package metrics exposes Prometheus counters for the notification engine.
// All methods are safe on a nil *Metrics, so components can accept metrics
// optionally without nil checks at every call site.
package metrics
