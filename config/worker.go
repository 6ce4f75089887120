package config

import "time"

// WorkerConfig contains billing job worker configuration.
type WorkerConfig struct {
	// Concurrency is the number of worker goroutines pulling jobs.
	Concurrency int `env:"WORKER_CONCURRENCY" envDefault:"2"`

	// Lease is the per-job lease duration. A job whose lease expires
	// without completion becomes eligible for retry.
	Lease time.Duration `env:"WORKER_LEASE" envDefault:"60s"`

	// RatePerMinute caps jobs executed per rolling minute across the pool,
	// to stay inside the billing provider's API rate limit.
	RatePerMinute int `env:"WORKER_RATE_PER_MINUTE" envDefault:"100"`

	// RateBurst is the burst size allowed by the rate limiter.
	RateBurst int `env:"WORKER_RATE_BURST" envDefault:"10"`

	// MaxRetries is the default retry budget for enqueued jobs.
	MaxRetries int `env:"WORKER_MAX_RETRIES" envDefault:"2"`

	// RetryDelay is the delay applied before a failed job is retried.
	RetryDelay time.Duration `env:"WORKER_RETRY_DELAY" envDefault:"30s"`
}

// Sanitize applies guardrails to worker configuration values.
func (w *WorkerConfig) Sanitize() {
	if w.Concurrency < 1 {
		w.Concurrency = 1
	}
	if w.Lease < time.Second {
		w.Lease = time.Second
	}
	if w.RatePerMinute < 1 {
		w.RatePerMinute = 1
	}
	if w.RateBurst < 1 {
		w.RateBurst = 1
	}
	if w.MaxRetries < 0 {
		w.MaxRetries = 0
	}
	if w.RetryDelay < 0 {
		w.RetryDelay = 0
	}
}

// SweeperConfig contains pending-update sweeper configuration.
//
// The sweeper is an opt-in safety net: it promotes pending updates that have
// sat unresolved past MaxAge into the faulty subscription store. Quarantine is
// otherwise a manual, operator-triggered action.
type SweeperConfig struct {
	// Enabled turns the sweep loop on. Disabled by default.
	Enabled bool `env:"ENABLED" envDefault:"false"`

	// Interval is how often the sweep runs.
	Interval time.Duration `env:"INTERVAL" envDefault:"1h"`

	// MaxAge is how old a pending update must be before it is quarantined.
	MaxAge time.Duration `env:"MAX_AGE" envDefault:"72h"`
}

// Sanitize applies guardrails to sweeper configuration values.
func (s *SweeperConfig) Sanitize() {
	if s.Interval < time.Minute {
		s.Interval = time.Minute
	}
	if s.MaxAge < time.Hour {
		s.MaxAge = time.Hour
	}
}
