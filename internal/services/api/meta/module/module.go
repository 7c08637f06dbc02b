// Package module wires the meta endpoints (version, health, readiness)
package module

import (
	"context"
	"time"

	"harborlist/internal/modkit"
	"harborlist/internal/modkit/httpkit"
	"harborlist/internal/modkit/module"
	str "harborlist/internal/platform/strings"

	metahttp "harborlist/internal/services/api/meta/http"
)

// Module serves /meta
type Module struct {
	b         modkit.Built
	deps      modkit.Deps
	startedAt time.Time
}

// New constructs the meta module
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)
	return &Module{b: b, deps: deps, startedAt: time.Now()}
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	d := metahttp.Deps{
		ServiceName: "harborlist-api",
		StartedAt:   m.startedAt,
		PG:          m.deps.PG,
		Modules:     module.Registered,
	}
	if m.deps.CH != nil {
		d.CH = m.deps.CH
	}
	if rds := m.deps.RDS; rds != nil {
		d.RDS = metahttp.PingFunc(func(ctx context.Context) error { return rds.Ping(ctx).Err() })
	}
	m.b.Mount(r, func(rr httpkit.Router) { metahttp.Register(rr, d) })
}

// Name implements modkit.Module
func (m *Module) Name() string { return str.MustString(m.b.Name, "meta module name") }

// Prefix is the normalized mount path
func (m *Module) Prefix() string { return str.MustPrefix(m.b.Prefix) }

// Ports implements modkit.Module. Meta exposes none
func (m *Module) Ports() any { return nil }
