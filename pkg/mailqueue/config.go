package mailqueue

import "time"

// Config holds the configuration for the mail queue worker.
type Config struct {
	PollInterval      time.Duration `env:"MAILQUEUE_POLL_INTERVAL" envDefault:"5s"`
	LockTimeout       time.Duration `env:"MAILQUEUE_LOCK_TIMEOUT" envDefault:"2m"`
	MaxConcurrentJobs int           `env:"MAILQUEUE_MAX_CONCURRENT_JOBS" envDefault:"10"`
}
