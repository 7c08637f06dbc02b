package module

import (
	"time"

	"harborlist/internal/platform/config"
)

// Options controls the outbox relay
type Options struct {
	Tick            time.Duration
	Batch           int
	Concurrency     int
	MaxAttempts     int
	LeaseFor        time.Duration
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	BreakerFailures int
	BreakerCooldown time.Duration
}

// FromConfig reads RELAY_* values
func FromConfig(cfg config.Conf) Options {
	rc := cfg.Prefix("RELAY_")
	return Options{
		Tick:            rc.MayDuration("TICK", time.Second),
		Batch:           rc.MayInt("BATCH", 100),
		Concurrency:     rc.MayInt("CONCURRENCY", 4),
		MaxAttempts:     rc.MayInt("MAX_ATTEMPTS", 10),
		LeaseFor:        rc.MayDuration("LEASE", time.Minute),
		BaseDelay:       rc.MayDuration("BASE_DELAY", 2*time.Second),
		MaxDelay:        rc.MayDuration("MAX_DELAY", 10*time.Minute),
		BreakerFailures: rc.MayInt("BREAKER_FAILURES", 5),
		BreakerCooldown: rc.MayDuration("BREAKER_COOLDOWN", 30*time.Second),
	}
}
