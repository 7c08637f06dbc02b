package module

import (
	"time"

	"harborlist/internal/platform/config"
)

// Options holds configuration settings for the queue module
type Options struct {
	DefaultLimit int
	MaxLimit     int
	TxAttempts   int
	TxBackoff    time.Duration
	DepthMetric  bool
}

// FromConfig reads QUEUE_* values from process config/env
func FromConfig(cfg config.Conf) Options {
	qc := cfg.Prefix("QUEUE_")
	return Options{
		DefaultLimit: qc.MayInt("DEFAULT_LIMIT", 50),
		MaxLimit:     qc.MayInt("MAX_LIMIT", 200),
		TxAttempts:   qc.MayInt("TX_ATTEMPTS", 3),
		TxBackoff:    qc.MayDuration("TX_BACKOFF", 50*time.Millisecond),
		DepthMetric:  qc.MayBool("DEPTH_METRIC", true),
	}
}
