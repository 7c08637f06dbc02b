package module

import (
	"time"

	"harborlist/internal/platform/config"
)

// Options holds configuration settings for the listings module
type Options struct {
	MaxActivePerOwner int
	MaxImages         int
	StoreRetryMax     int
	StoreBackoff      time.Duration
	StaleRetries      int
	LockTimeout       time.Duration
}

// FromConfig reads LISTINGS_* values from process config/env
func FromConfig(cfg config.Conf) Options {
	lc := cfg.Prefix("LISTINGS_")
	return Options{
		MaxActivePerOwner: lc.MayInt("MAX_ACTIVE_PER_OWNER", 25),
		MaxImages:         lc.MayInt("MAX_IMAGES", 20),
		StoreRetryMax:     lc.MayInt("STORE_RETRY_MAX", 3),
		StoreBackoff:      lc.MayDuration("STORE_BACKOFF", 50*time.Millisecond),
		StaleRetries:      lc.MayInt("STALE_RETRIES", 3),
		LockTimeout:       lc.MayDuration("LOCK_TIMEOUT", 2*time.Second),
	}
}
