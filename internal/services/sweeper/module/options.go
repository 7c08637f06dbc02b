package module

import (
	"time"

	"harborlist/internal/platform/config"
)

// Options controls the expiry sweeper
type Options struct {
	Schedule string
	TTLDays  int
	Batch    int
}

// FromConfig reads SWEEPER_* values
func FromConfig(cfg config.Conf) Options {
	sc := cfg.Prefix("SWEEPER_")
	return Options{
		Schedule: sc.MayString("SCHEDULE", "@hourly"),
		TTLDays:  sc.MayInt("TTL_DAYS", 90),
		Batch:    sc.MayInt("BATCH", 100),
	}
}

// TTL is the publication window
func (o Options) TTL() time.Duration { return time.Duration(o.TTLDays) * 24 * time.Hour }
