// Command harborlist-relay delivers committed listing events to Kafka,
// ClickHouse and the log
package main

import (
	"context"
	"errors"
	"flag"
	"os/signal"
	"syscall"

	chsink "harborlist/internal/adapters/events/clickhouse"
	kafkasink "harborlist/internal/adapters/events/kafka"
	"harborlist/internal/adapters/events/logsink"
	"harborlist/internal/modkit"
	"harborlist/internal/modkit/module"
	"harborlist/internal/platform/config"
	"harborlist/internal/platform/logger"
	"harborlist/internal/platform/store"
	"harborlist/internal/services/outbox/domain"

	outboxmod "harborlist/internal/services/outbox/module"
)

func main() {
	var (
		fOnce = flag.Bool("once", false, "drain one batch and exit")
		fLog  = flag.Bool("log", false, "also write every event to the log")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Init(logger.FromEnv("harborlist-relay"))

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")
	l := logger.Get()

	st, err := store.Open(ctx, store.Config{
		AppName: "harborlist",
		Role:    "relay",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled: chCfg.MayBool("ENABLED", false),
			URL:     chCfg.MayString("DBURL", ""),
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

	var sinks []domain.Sink
	if kc := kafkasink.FromConfig(root); kc.Enabled {
		if len(kc.Brokers) == 0 {
			l.Panic().Msg("SERVICE_KAFKA_BROKERS is required when kafka is enabled")
		}
		k := kafkasink.New(kc)
		defer func() {
			if err := k.Close(); err != nil {
				l.Error().Err(err).Msg("kafka writer close")
			}
		}()
		sinks = append(sinks, k)
	}
	if st.CH != nil {
		c := chsink.New(st.CH)
		if err := c.Ensure(ctx); err != nil {
			l.Panic().Err(err).Msg("clickhouse sink init failed")
		}
		sinks = append(sinks, c)
	}
	if *fLog {
		sinks = append(sinks, logsink.Sink{})
	}

	deps := modkit.Deps{Cfg: root, PG: st.PG, CH: st.CH, Log: *l}
	mod := outboxmod.New(deps, modkit.WithPorts(outboxmod.Ports{Sinks: sinks}))
	module.Register(mod.Name(), mod.Ports())
	relay := module.MustPortsOf[outboxmod.Exposed](mod).Relay

	if *fOnce {
		stats, err := relay.Tick(ctx)
		if err != nil {
			l.Fatal().Err(err).Msg("relay tick failed")
		}
		l.Info().Int("leased", stats.Leased).Int("delivered", stats.Delivered).
			Int("rescheduled", stats.Rescheduled).Int("dead", stats.Dead).Msg("relay drained one batch")
		return
	}

	if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		l.Fatal().Err(err).Msg("relay failed")
	}
}
