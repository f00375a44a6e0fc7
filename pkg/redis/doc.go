// Package redis provides helpers for connecting to a Redis server: a
// Connect function that retries until the server becomes ready, and a
// health-check closure for liveness probes.
//
// Within this module Redis backs the in-app notification feed storage,
// where the 30-day retention window makes an expiring key-value store a
// natural fit.
//
// Configuration is described by the Config struct whose fields are
// populated from environment variables via github.com/caarlos0/env.
package redis
