// @title         Harborlist API
// @version       0.1.0
// @description   Boat listings with moderated publication

package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"harborlist/internal/adapters/cache"
	"harborlist/internal/adapters/media"
	"harborlist/internal/modkit/httpkit"
	"harborlist/internal/platform/config"
	"harborlist/internal/platform/logger"
	phttp "harborlist/internal/platform/net/http"
	"harborlist/internal/platform/store"

	"harborlist/internal/services/api"
	identsvc "harborlist/internal/services/ident/service"
	listingsdom "harborlist/internal/services/listings/domain"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// service-scoped config for HTTP etc (CORE_API_*)
	logger.Init(logger.FromEnv("harborlist-api"))

	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")
	cacheCfg := cache.FromConfig(root)
	mediaCfg := media.FromConfig(root)

	// bring up logging early
	l := logger.Get()

	// open the platform store (postgres, optional clickhouse and redis)
	st, err := store.Open(
		ctx,
		store.Config{
			AppName: "harborlist",
			Role:    "api",
			PG: store.PGConfig{
				Enabled:     true,
				URL:         pgCfg.MustString("DBURL"),
				MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 8)),
				SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
				LogSQL:      pgCfg.MayBool("LOG_SQL", false),
			},
			CH: store.CHConfig{
				Enabled: chCfg.MayBool("ENABLED", false),
				URL:     chCfg.MayString("DBURL", ""),
			},
			RDS: store.RedisConfig{
				Enabled: cacheCfg.Enabled,
				Addr:    cacheCfg.Addr,
				DB:      cacheCfg.DB,
			},
		},
		store.WithLogger(*logger.Get()),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	var tokens httpkit.TokenFunc
	if secret := apiCfg.MayString("JWT_SECRET", ""); secret != "" {
		tokens = identsvc.NewTokens(secret, apiCfg.MayString("JWT_ISSUER", ""), apiCfg.MayDuration("JWT_TTL", time.Hour)).Parse
	}

	var mediaPort listingsdom.MediaPort
	if mediaCfg.Enabled {
		v, err := media.New(ctx, mediaCfg)
		if err != nil {
			l.Panic().Err(err).Msg("media validator init failed")
		}
		mediaPort = v
	}

	var slugCache listingsdom.SlugCache
	if st.RDS != nil {
		slugCache = cache.New(st.RDS, cacheCfg.TTL)
	}

	// http server (reads CORE_API_API_PORT)
	srv := phttp.NewServer(apiCfg)

	api.Mount(
		srv.Router(),
		api.Options{
			Config:         root,
			Store:          st,
			Logger:         l,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
			EnableMetrics:  apiCfg.MayBool("METRICS", true),
			Tokens:         tokens,
			Media:          mediaPort,
			Cache:          slugCache,
			Stack: httpkit.StackOptions{
				Origins: apiCfg.MayCSV("CORS_ORIGINS", nil),
				Timeout: apiCfg.MayDuration("REQUEST_TIMEOUT", 30*time.Second),
				Slow:    apiCfg.MayDuration("SLOW_REQUEST", 500*time.Millisecond),
			},
		},
	)

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
