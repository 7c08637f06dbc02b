// Package module wires the moderation queue into the API using modkit
package module

import (
	"harborlist/internal/modkit"
	"harborlist/internal/modkit/httpkit"
	"harborlist/internal/modkit/repokit"
	"harborlist/internal/platform/logger"
	"harborlist/internal/platform/metrics"
	"harborlist/internal/platform/store"
	"harborlist/internal/services/queue/domain"
	qhttp "harborlist/internal/services/queue/http"
	"harborlist/internal/services/queue/repo"
	"harborlist/internal/services/queue/service"
)

// Roles allowed to work the queue
var Roles = []string{"moderator", "admin"}

// Ports declares what the queue module needs injected
type Ports struct {
	Listings domain.ListingPort
}

// Exposed are the ports other modules may look up
type Exposed struct {
	Service domain.ServicePort
	Tx      domain.TxPort
}

// Module implements the queue API module
type Module struct {
	b     modkit.Built
	ports Exposed
	svc   service.Service
}

// TxOps returns the queue operations the listing service runs inside its own
// transactions. It needs no module instance
func TxOps() domain.TxPort { return service.NewOps(repo.NewPG()) }

// New constructs the queue module
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("queue"),
		modkit.WithPrefix("/moderation/queue"),
		modkit.WithMiddlewares(httpkit.RequireRole(Roles...)),
	}, opts...)...)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}
	if injected.Listings == nil {
		panic("queue module requires Listings port (from services/listings)")
	}

	cfg := FromConfig(deps.Cfg)
	binder := repo.NewPG()
	svc := service.New(deps.PG, binder, service.Options{
		Listings:     injected.Listings,
		DefaultLimit: cfg.DefaultLimit,
		MaxLimit:     cfg.MaxLimit,
		Retry:        store.RetryPolicy{MaxAttempts: cfg.TxAttempts, Initial: cfg.TxBackoff},
	})
	if cfg.DepthMetric {
		if err := metrics.Register(service.NewDepthCollector(repokit.MustBind(binder, deps.PG))); err != nil {
			logger.Named("queue").Warn().Err(err).Msg("queue depth collector not registered")
		}
	}

	return &Module{
		b:     b,
		svc:   svc,
		ports: Exposed{Service: svc, Tx: TxOps()},
	}
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(rr httpkit.Router) { qhttp.Register(rr, m.svc) })
}

// Name returns the module name
func (m *Module) Name() string { return m.b.Name }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return m.b.Prefix }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
