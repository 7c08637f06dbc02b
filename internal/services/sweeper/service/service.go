// Package service expires listings whose publication window has run out
package service

import (
	"context"
	"time"

	perr "harborlist/internal/platform/errors"
	"harborlist/internal/platform/logger"
	"harborlist/internal/platform/metrics"
	"harborlist/internal/services/listings/domain"

	"github.com/robfig/cron/v3"
)

// Config controls the sweeper
type Config struct {
	// Schedule is a standard five field cron spec
	Schedule string
	TTL      time.Duration
	Batch    int
}

// Result summarizes one sweep
type Result struct {
	Expired int
	Skipped int
	Failed  int
}

// Sweeper expires active listings older than the TTL
type Sweeper struct {
	port domain.SweepPort
	cfg  Config
	now  func() time.Time
}

// New returns a sweeper over port
func New(port domain.SweepPort, cfg Config) *Sweeper {
	if port == nil {
		panic("sweeper requires a non nil SweepPort")
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@hourly"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 90 * 24 * time.Hour
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 100
	}
	return &Sweeper{port: port, cfg: cfg, now: func() time.Time { return time.Now().UTC() }}
}

// Run sweeps on the schedule until ctx is done. Overlapping runs are skipped
func (s *Sweeper) Run(ctx context.Context) error {
	log := logger.Named("sweeper")
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(s.cfg.Schedule, func() {
		res, err := s.Sweep(ctx)
		if err != nil {
			log.Error().Err(err).Msg("sweep failed")
			return
		}
		log.Info().Int("expired", res.Expired).Int("skipped", res.Skipped).Int("failed", res.Failed).Msg("sweep done")
	})
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "bad sweeper schedule %q", s.cfg.Schedule)
	}

	c.Start()
	log.Info().Str("schedule", s.cfg.Schedule).Dur("ttl", s.cfg.TTL).Msg("sweeper started")
	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

// Sweep expires every due listing once. A listing that left active between the
// scan and the expire is skipped
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	log := logger.Named("sweeper")
	cutoff := s.now().Add(-s.cfg.TTL)
	seen := map[string]struct{}{}
	var res Result

	for {
		// ids that failed stay due, so widen the page to step past them
		limit := s.cfg.Batch + res.Skipped + res.Failed
		ids, err := s.port.DueForExpiry(ctx, cutoff, limit)
		if err != nil {
			return res, err
		}
		fresh := 0
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			fresh++

			_, err := s.port.Expire(ctx, id)
			switch {
			case err == nil:
				res.Expired++
				metrics.SweeperExpired.Inc()
			case perr.IsCode(err, perr.ErrorCodeInvalidState), perr.IsCode(err, perr.ErrorCodeNotFound):
				res.Skipped++
			default:
				res.Failed++
				log.Warn().Err(err).Str("listing_id", id).Msg("expire failed")
			}
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
		}
		if fresh == 0 || len(ids) < limit {
			return res, nil
		}
	}
}
