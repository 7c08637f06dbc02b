// Package module wires the expiry sweeper worker
package module

import (
	"harborlist/internal/modkit"
	"harborlist/internal/modkit/httpkit"
	listingsdom "harborlist/internal/services/listings/domain"
	"harborlist/internal/services/sweeper/service"
)

// Ports declares what the sweeper needs injected
type Ports struct {
	Listings listingsdom.SweepPort
}

// Exposed are the ports other modules may look up
type Exposed struct {
	Sweeper *service.Sweeper
}

// Module is a worker-only module
type Module struct {
	name  string
	ports Exposed
}

// New constructs the sweeper module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("sweeper")}, opts...)...)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}
	if injected.Listings == nil {
		panic("sweeper module requires Listings port (from services/listings)")
	}

	cfg := FromConfig(deps.Cfg)
	sw := service.New(injected.Listings, service.Config{
		Schedule: cfg.Schedule,
		TTL:      cfg.TTL(),
		Batch:    cfg.Batch,
	})
	return &Module{name: b.Name, ports: Exposed{Sweeper: sw}}
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Prefix is empty; the sweeper has no routes
func (m *Module) Prefix() string { return "" }

// MountRoutes mounts nothing
func (m *Module) MountRoutes(_ httpkit.Router) {}
