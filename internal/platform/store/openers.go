package store

import (
	"context"
	"fmt"
	"time"

	chx "harborlist/internal/platform/store/ch"
	"harborlist/internal/platform/store/pg"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
)

// seams for tests
var (
	chOpen = func(ctx context.Context, c chx.Config) (chClient, error) {
		cl, err := chx.Open(ctx, c)
		if err != nil {
			return nil, err
		}
		return cl, nil
	}
	redisOpen = func(o *redis.Options) redis.UniversalClient { return redis.NewClient(o) }
)

// openPG opens pg and wraps it with our sql adapter
func openPG(ctx context.Context, cfg Config, s *Store) (TxRunner, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(s.Log)
	}

	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
		AppName:  appName(cfg),
	}, tracer, nil)
	if err != nil {
		return nil, err
	}

	retries := cfg.PG.ConnectRetries
	if retries <= 0 {
		retries = 20
	}
	pingTimeout := cfg.PG.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 3 * time.Second
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 150 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = 0

	attempts := 0
	ping := func() error {
		attempts++
		toCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		// ping the pool directly so boot does not emit a SQL trace line
		return p.Pool.Ping(toCtx)
	}

	err = backoff.Retry(ping, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(retries-1)), ctx))
	if err != nil {
		p.Close()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("postgres ping failed after %d attempts: %w", attempts, err)
	}

	return newPGAdapter(p), nil
}

// appName joins AppName and Role, e.g. harborlist-relay
func appName(cfg Config) string {
	switch {
	case cfg.Role == "":
		return cfg.AppName
	case cfg.AppName == "":
		return cfg.Role
	}
	return cfg.AppName + "-" + cfg.Role
}

func openCH(ctx context.Context, cfg Config, _ *Store) (Clickhouse, error) {
	c, err := chOpen(ctx, chx.Config{
		URL:  cfg.CH.URL,
		Role: cfg.Role,
		Tag:  cfg.AppName,
	})
	if err != nil {
		return nil, err
	}
	return newCHAdapter(c), nil
}

func openRedis(ctx context.Context, cfg Config, _ *Store) (redis.UniversalClient, error) {
	c := redisOpen(&redis.Options{
		Addr: cfg.RDS.Addr,
		DB:   cfg.RDS.DB,
	})
	toCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(toCtx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return c, nil
}
