// Package module wires the outbox relay worker and exposes the event appender
package module

import (
	"os"

	"harborlist/internal/adapters/events/logsink"
	"harborlist/internal/modkit"
	"harborlist/internal/modkit/httpkit"
	"harborlist/internal/modkit/repokit"
	"harborlist/internal/platform/logger"
	"harborlist/internal/services/outbox/domain"
	"harborlist/internal/services/outbox/repo"
	"harborlist/internal/services/outbox/service"
)

// Ports declares what the relay needs injected
type Ports struct {
	// Sinks receive every event; the log sink is used when empty
	Sinks []domain.Sink
}

// Exposed are the ports other modules may look up
type Exposed struct {
	Events domain.TxPort
	Relay  domain.RelayPort
}

// Module is a worker-only module
type Module struct {
	name  string
	ports Exposed
}

// TxOps returns the appender producers run inside their own transactions
func TxOps() domain.TxPort { return service.NewOps(repo.NewPG()) }

// New constructs the relay module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("outbox")}, opts...)...)

	var injected Ports
	if p, ok := b.Ports.(Ports); ok {
		injected = p
	}
	sinks := injected.Sinks
	if len(sinks) == 0 {
		sinks = []domain.Sink{logsink.Sink{}}
	}
	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}

	cfg := FromConfig(deps.Cfg)
	host, _ := os.Hostname()
	relay := service.NewRelay(repokit.MustBind(repo.NewPG(), deps.PG), sinks, service.RelayConfig{
		Worker:          "relay@" + host,
		Tick:            cfg.Tick,
		Batch:           cfg.Batch,
		Concurrency:     cfg.Concurrency,
		MaxAttempts:     cfg.MaxAttempts,
		LeaseFor:        cfg.LeaseFor,
		BaseDelay:       cfg.BaseDelay,
		MaxDelay:        cfg.MaxDelay,
		BreakerFailures: uint32(max(0, cfg.BreakerFailures)),
		BreakerCooldown: cfg.BreakerCooldown,
	})
	logger.Named("outbox").Debug().Strs("sinks", names).Msg("outbox relay ready")

	return &Module{name: b.Name, ports: Exposed{Events: TxOps(), Relay: relay}}
}

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Prefix is empty; the relay has no routes
func (m *Module) Prefix() string { return "" }

// MountRoutes mounts nothing
func (m *Module) MountRoutes(_ httpkit.Router) {}
