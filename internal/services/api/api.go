// Package api provides the HTTP API for the application
package api

import (
	"harborlist/internal/platform/config"
	"harborlist/internal/platform/logger"
	"harborlist/internal/platform/metrics"
	phttp "harborlist/internal/platform/net/http"
	"harborlist/internal/platform/store"

	"harborlist/internal/modkit"
	"harborlist/internal/modkit/httpkit"
	"harborlist/internal/modkit/module"
	"harborlist/internal/modkit/swaggerkit"

	metamod "harborlist/internal/services/api/meta/module"
	listingsdom "harborlist/internal/services/listings/domain"
	listingsmod "harborlist/internal/services/listings/module"
	outboxmod "harborlist/internal/services/outbox/module"
	queuemod "harborlist/internal/services/queue/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
	EnableMetrics  bool

	// Stack tunes CORS, request timeout and slow request logging
	Stack httpkit.StackOptions

	// Tokens parses bearer tokens. Nil leaves every caller anonymous
	Tokens httpkit.TokenFunc

	// Media and Cache are optional listing adapters
	Media listingsdom.MediaPort
	Cache listingsdom.SlugCache
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg: opt.Config,
		PG:  opt.Store.PG,
		CH:  opt.Store.CH,
		RDS: opt.Store.RDS,
	}

	// listings runs queue and outbox writes inside its own transactions, so
	// it takes their stateless tx ops rather than the modules
	listings := listingsmod.New(deps, modkit.WithPorts(listingsmod.Ports{
		Queue:  queuemod.TxOps(),
		Events: outboxmod.TxOps(),
		Media:  opt.Media,
		Cache:  opt.Cache,
	}))
	module.Register(listings.Name(), listings.Ports())

	// queue assignment moves the listing into review through the listings port
	lp, ok := module.PortsAs[listingsmod.Exposed](listings.Name())
	if !ok {
		panic("api: listings ports not registered")
	}
	queue := queuemod.New(deps, modkit.WithPorts(queuemod.Ports{
		Listings: lp.Listings,
	}))
	module.Register(queue.Name(), queue.Ports())

	meta := metamod.New(deps)
	module.Register(meta.Name(), meta.Ports())

	mods := []modkit.Module{meta, listings, queue}

	stack := httpkit.CommonStack(opt.Stack)
	if opt.Tokens != nil {
		stack = append(stack, httpkit.OptionalAuth(httpkit.NewPortFunc(opt.Tokens)))
	} else if opt.Logger != nil {
		opt.Logger.Warn().Msg("no token parser configured; all API callers are anonymous")
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, stack, func(api httpkit.Router) {
		// Swagger, profiler and metrics
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)
		metrics.Mount(r, "/metrics", opt.EnableMetrics)

		for _, m := range mods {
			m.MountRoutes(api)
		}
	})
}
