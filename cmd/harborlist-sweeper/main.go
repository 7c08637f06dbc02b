// Command harborlist-sweeper expires listings whose publication window ran out
package main

import (
	"context"
	"errors"
	"flag"
	"os/signal"
	"syscall"

	"harborlist/internal/modkit"
	"harborlist/internal/modkit/module"
	"harborlist/internal/platform/config"
	"harborlist/internal/platform/logger"
	"harborlist/internal/platform/store"

	listingsmod "harborlist/internal/services/listings/module"
	outboxmod "harborlist/internal/services/outbox/module"
	queuemod "harborlist/internal/services/queue/module"
	sweepermod "harborlist/internal/services/sweeper/module"
)

func main() {
	fOnce := flag.Bool("once", false, "sweep once and exit instead of following SWEEPER_SCHEDULE")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Init(logger.FromEnv("harborlist-sweeper"))

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	l := logger.Get()

	st, err := store.Open(ctx, store.Config{
		AppName: "harborlist",
		Role:    "sweeper",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 2)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	deps := modkit.Deps{Cfg: root, PG: st.PG, Log: *l}

	// expiry goes through the listing service so queue entries close and
	// events are emitted exactly as for any other transition
	listings := listingsmod.New(deps, modkit.WithPorts(listingsmod.Ports{
		Queue:  queuemod.TxOps(),
		Events: outboxmod.TxOps(),
	}))
	sweep := module.MustPortsOf[listingsmod.Exposed](listings).Sweep

	mod := sweepermod.New(deps, modkit.WithPorts(sweepermod.Ports{Listings: sweep}))
	module.Register(mod.Name(), mod.Ports())
	sw := module.MustPortsOf[sweepermod.Exposed](mod).Sweeper

	if *fOnce {
		res, err := sw.Sweep(ctx)
		if err != nil {
			l.Fatal().Err(err).Msg("sweep failed")
		}
		l.Info().Int("expired", res.Expired).Int("skipped", res.Skipped).Int("failed", res.Failed).Msg("sweep done")
		return
	}

	if err := sw.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		l.Fatal().Err(err).Msg("sweeper failed")
	}
}
