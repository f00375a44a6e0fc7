// Package pg provides utilities for interacting with PostgreSQL using the
// pgx/v5 driver: connection pooling with retry, goose schema migrations,
// health checks, and common error classification helpers.
//
// The engine's persistent stores (reservations, delivery ledger, device
// tokens, mail queue) all build on the pool returned by Connect. Migrate
// applies the SQL migrations shipped in the repository's migrations/
// directory before the service starts serving traffic.
//
// Configuration is provided through environment variables; refer to the
// field tags in Config for exact variable names and defaults.
package pg
