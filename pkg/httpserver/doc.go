// Package httpserver runs the notification API's HTTP listener with graceful
// shutdown. Run blocks until the supplied context is cancelled, then drains
// in-flight requests within a configurable deadline. HealthCheckHandler
// exposes liveness and readiness probes backed by dependency pings.
package httpserver
