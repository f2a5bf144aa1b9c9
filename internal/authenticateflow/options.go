package authenticateflow

import (
	"time"

	"github.com/pomerium/teamdash/internal/sessions"
)

type config struct {
	sessionTTL   time.Duration
	demoFallback bool
	demoDelay    time.Duration
	after        func(time.Duration) <-chan time.Time
	onSignIn     []func()
}

// An Option customizes a Flow.
type Option func(*config)

// WithSessionTTL sets how long a new session stays valid.
func WithSessionTTL(ttl time.Duration) Option {
	return func(cfg *config) {
		cfg.sessionTTL = ttl
	}
}

// WithDemoFallback enables the offline fallback for the demo credentials.
func WithDemoFallback(enabled bool, delay time.Duration) Option {
	return func(cfg *config) {
		cfg.demoFallback = enabled
		cfg.demoDelay = delay
	}
}

// WithAfter replaces time.After for the fallback delay.
func WithAfter(after func(time.Duration) <-chan time.Time) Option {
	return func(cfg *config) {
		cfg.after = after
	}
}

// OnSignIn registers fn to run after every successful sign-in.
func OnSignIn(fn func()) Option {
	return func(cfg *config) {
		cfg.onSignIn = append(cfg.onSignIn, fn)
	}
}

func getConfig(options ...Option) *config {
	cfg := &config{
		sessionTTL: sessions.DefaultTTL,
		demoDelay:  DefaultDemoDelay,
		after:      time.After,
	}
	for _, o := range options {
		o(cfg)
	}
	return cfg
}
