// Package module wires listings into the API using modkit
package module

import (
	"harborlist/internal/core/lifecycle"
	"harborlist/internal/core/riskscan"
	"harborlist/internal/modkit"
	"harborlist/internal/modkit/httpkit"
	"harborlist/internal/modkit/repokit"
	"harborlist/internal/platform/logger"
	"harborlist/internal/platform/store"
	identrepo "harborlist/internal/services/ident/repo"
	identsvc "harborlist/internal/services/ident/service"
	"harborlist/internal/services/listings/domain"
	lhttp "harborlist/internal/services/listings/http"
	"harborlist/internal/services/listings/repo"
	"harborlist/internal/services/listings/service"
	outboxdom "harborlist/internal/services/outbox/domain"
	queuedom "harborlist/internal/services/queue/domain"
)

// Ports declares what the listings module needs injected.
// Queue and Events are required; the rest fall back to defaults
type Ports struct {
	Queue   queuedom.TxPort
	Events  outboxdom.TxPort
	Media   domain.MediaPort
	Cache   domain.SlugCache
	Scanner lifecycle.Scanner
}

// Exposed are the ports other modules may look up
type Exposed struct {
	Service  domain.ServicePort
	Sweep    domain.SweepPort
	Listings queuedom.ListingPort
}

// Module implements the listings API module
type Module struct {
	b     modkit.Built
	ports Exposed
	svc   service.Service
}

// New constructs the listings module
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("listings"),
		modkit.WithPrefix("/listings"),
	}, opts...)...)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}
	if injected.Queue == nil || injected.Events == nil {
		panic("listings module requires Queue and Events ports (from services/queue and services/outbox)")
	}

	cfg := FromConfig(deps.Cfg)
	svc := NewService(deps, injected, cfg)
	logger.Named("listings").Debug().
		Int("max_active_per_owner", cfg.MaxActivePerOwner).
		Int("max_images", cfg.MaxImages).
		Bool("media_check", injected.Media != nil).
		Bool("slug_cache", injected.Cache != nil).
		Msg("listings module ready")

	return &Module{
		b:     b,
		svc:   svc,
		ports: Exposed{Service: svc, Sweep: svc, Listings: svc},
	}
}

// NewService builds the listing service without the HTTP module, for workers
// like the sweeper
func NewService(deps modkit.Deps, p Ports, cfg Options) *service.Svc {
	if p.Scanner == nil {
		sc, err := riskscan.Default()
		if err != nil {
			panic("listings: load content rules: " + err.Error())
		}
		p.Scanner = sc
	}
	tx := deps.PG
	if tx != nil && cfg.LockTimeout > 0 {
		tx = repokit.WithBeginHooks(tx, repokit.LockTimeout(cfg.LockTimeout))
	}
	return service.New(tx, repo.NewPG(), service.Options{
		Queue:        p.Queue,
		Events:       p.Events,
		Auth:         identsvc.New(deps.PG, identrepo.NewPG(), cfg.MaxActivePerOwner),
		Scanner:      p.Scanner,
		Media:        p.Media,
		Cache:        p.Cache,
		Retry:        store.RetryPolicy{MaxAttempts: cfg.StoreRetryMax, Initial: cfg.StoreBackoff},
		StaleRetries: cfg.StaleRetries,
		MaxImages:    cfg.MaxImages,
	})
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(rr httpkit.Router) { lhttp.Register(rr, m.svc) })
}

// Name returns the module name
func (m *Module) Name() string { return m.b.Name }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return m.b.Prefix }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
