package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"harborlist/internal/platform/logger"
	"harborlist/internal/platform/metrics"
	"harborlist/internal/services/outbox/domain"
	"harborlist/internal/services/outbox/repo"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

// RelayConfig controls the relay loop
type RelayConfig struct {
	Worker      string
	Tick        time.Duration
	Batch       int
	Concurrency int
	MaxAttempts int
	LeaseFor    time.Duration
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Breaker trips a sink after this many consecutive failures
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

func (c *RelayConfig) defaults() {
	if c.Worker == "" {
		c.Worker = "relay"
	}
	if c.Tick <= 0 {
		c.Tick = time.Second
	}
	if c.Batch <= 0 {
		c.Batch = 100
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 10
	}
	if c.LeaseFor <= 0 {
		c.LeaseFor = time.Minute
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 2 * time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 10 * time.Minute
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 5
	}
	if c.BreakerCooldown <= 0 {
		c.BreakerCooldown = 30 * time.Second
	}
}

// guarded is a sink behind its own circuit breaker
type guarded struct {
	sink domain.Sink
	cb   *gobreaker.CircuitBreaker
}

// Relay moves committed outbox events to the sinks, at least once
type Relay struct {
	repo  repo.Repo
	sinks []guarded
	cfg   RelayConfig
	now   func() time.Time
}

var _ domain.RelayPort = (*Relay)(nil)

// NewRelay builds a relay over r. r must be bound to the pool, not a transaction
func NewRelay(r repo.Repo, sinks []domain.Sink, cfg RelayConfig) *Relay {
	if r == nil {
		panic("outbox.Relay requires a non nil Repo")
	}
	if len(sinks) == 0 {
		panic("outbox.Relay requires at least one sink")
	}
	cfg.defaults()
	log := logger.Named("outbox-relay")

	gs := make([]guarded, 0, len(sinks))
	for _, s := range sinks {
		threshold := cfg.BreakerFailures
		gs = append(gs, guarded{
			sink: s,
			cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
				Name:        s.Name(),
				MaxRequests: 1,
				Timeout:     cfg.BreakerCooldown,
				ReadyToTrip: func(c gobreaker.Counts) bool {
					return c.ConsecutiveFailures >= threshold
				},
				OnStateChange: func(name string, from, to gobreaker.State) {
					log.Warn().Str("sink", name).Str("from", from.String()).Str("to", to.String()).Msg("sink breaker state change")
				},
			}),
		})
	}
	return &Relay{repo: r, sinks: gs, cfg: cfg, now: func() time.Time { return time.Now().UTC() }}
}

// Run ticks until ctx is cancelled
func (r *Relay) Run(ctx context.Context) error {
	log := logger.Named("outbox-relay")
	ticker := time.NewTicker(r.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			st, err := r.Tick(ctx)
			if err != nil {
				log.Error().Err(err).Msg("relay tick failed")
				continue
			}
			if st.Leased > 0 {
				log.Debug().
					Int("leased", st.Leased).
					Int("delivered", st.Delivered).
					Int("rescheduled", st.Rescheduled).
					Int("dead", st.Dead).
					Msg("relay tick")
			}
		}
	}
}

// Tick leases one batch and settles every event in it
func (r *Relay) Tick(ctx context.Context) (domain.TickStats, error) {
	events, err := r.repo.Lease(ctx, r.cfg.Worker, r.cfg.Batch, r.now(), r.cfg.LeaseFor)
	if err != nil {
		return domain.TickStats{}, err
	}
	st := domain.TickStats{Leased: len(events)}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, r.cfg.Concurrency)
	)
	for i := range events {
		e := events[i]
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() { <-sem; wg.Done() }()
			outcome := r.settle(ctx, e)
			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeDelivered:
				st.Delivered++
			case outcomeRescheduled:
				st.Rescheduled++
			case outcomeDead:
				st.Dead++
			}
		}()
	}
	wg.Wait()
	return st, nil
}

type outcome int

const (
	outcomeDelivered outcome = iota
	outcomeRescheduled
	outcomeDead
	outcomeLeft
)

// settle delivers e to every sink. A failed event goes to every sink again on
// the next attempt, so sinks must tolerate duplicates
func (r *Relay) settle(ctx context.Context, e domain.Event) outcome {
	log := logger.Named("outbox-relay")
	cause := r.deliver(ctx, e)
	if cause == nil {
		if err := r.repo.MarkDelivered(ctx, e.ID, r.now()); err != nil {
			log.Error().Err(err).Str("event_id", e.ID).Msg("mark delivered failed")
			return outcomeLeft
		}
		return outcomeDelivered
	}

	if e.Attempts >= r.cfg.MaxAttempts {
		if err := r.repo.MarkDead(ctx, e.ID, cause.Error()); err != nil {
			log.Error().Err(err).Str("event_id", e.ID).Msg("dead-letter failed")
			return outcomeLeft
		}
		log.Warn().Err(cause).Str("event_id", e.ID).Str("event_type", e.Type).Int("attempts", e.Attempts).Msg("outbox event dead-lettered")
		return outcomeDead
	}

	next := r.now().Add(RetryDelay(e.Attempts, r.cfg.BaseDelay, r.cfg.MaxDelay))
	if err := r.repo.Reschedule(ctx, e.ID, next, cause.Error()); err != nil {
		log.Error().Err(err).Str("event_id", e.ID).Msg("reschedule failed")
		return outcomeLeft
	}
	return outcomeRescheduled
}

func (r *Relay) deliver(ctx context.Context, e domain.Event) error {
	var failed []string
	var errs []error
	for _, g := range r.sinks {
		_, err := g.cb.Execute(func() (any, error) {
			return nil, g.sink.Deliver(ctx, e)
		})
		switch {
		case err == nil:
			metrics.RelayDeliveries.WithLabelValues(g.sink.Name(), "delivered").Inc()
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			metrics.RelayDeliveries.WithLabelValues(g.sink.Name(), "open").Inc()
			failed, errs = append(failed, g.sink.Name()), append(errs, err)
		default:
			metrics.RelayDeliveries.WithLabelValues(g.sink.Name(), "failed").Inc()
			failed, errs = append(failed, g.sink.Name()), append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("sinks %s: %w", strings.Join(failed, ","), errors.Join(errs...))
}

// RetryDelay is the wait after a failed attempt: base doubled per attempt and
// capped at ceiling, without jitter
func RetryDelay(attempt int, base, ceiling time.Duration) time.Duration {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = base
	bo.MaxInterval = ceiling
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	bo.Reset()

	d := base
	for i := 0; i < attempt; i++ {
		d = bo.NextBackOff()
	}
	return d
}
