// Package http serves the meta endpoints
package http

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"harborlist/internal/core/rulepack"
	"harborlist/internal/core/version"
	"harborlist/internal/modkit/httpkit"
)

// readyTimeout bounds all dependency pings of one readiness probe
const readyTimeout = 2 * time.Second

// Pinger is satisfied by store clients that can check their connection
type Pinger interface {
	Ping(context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(context.Context) error

// Ping implements Pinger
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Deps are the handler dependencies. Stores are any so a nil interface
// value reads as disabled
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	PG          any
	CH          any
	RDS         any

	// Modules lists the composed API modules
	Modules func() []string
}

type handlers struct {
	deps Deps
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	h := &handlers{deps: d}
	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.service)
	httpkit.Get(r, "/rules", h.rules)
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK      bool   `json:"ok"      example:"true"`
	Service string `json:"service" example:"harborlist-api"`
	Now     string `json:"now"     example:"2026-05-03T13:05:00Z"`
}

// ReadyCheck is one dependency probe. Status is ok, fail, skipped or unknown
type ReadyCheck struct {
	Name   string `json:"name"            example:"pg"`
	Status string `json:"status"          example:"ok"`
	Error  string `json:"error,omitempty" example:"dial tcp 127.0.0.1:5432: connect: connection refused"`
}

// ReadyResponse summarizes readiness. Status is ok, degraded or fail
type ReadyResponse struct {
	Status string       `json:"status" example:"ok"`
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"    example:"2026-05-03T13:05:00Z"`
}

// ServiceResponse describes the running process
type ServiceResponse struct {
	Name    string   `json:"name"    example:"harborlist-api"`
	Started string   `json:"started" example:"2026-05-03T13:00:00Z"`
	Uptime  int64    `json:"uptime"  example:"300"`
	Modules []string `json:"modules" example:"listings,meta,queue"`
}

// RulesResponse reports the content rule pack the scanner runs
type RulesResponse struct {
	PackVersion int               `json:"pack_version" example:"1"`
	Terms       int               `json:"terms"        example:"42"`
	Patterns    int               `json:"patterns"     example:"6"`
	Build       version.BuildInfo `json:"build"`
}

// @Summary Liveness
// @Tags Meta
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /meta/health [get]
func (h *handlers) health(_ *http.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Now:     time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// @Summary Readiness with dependency checks
// @Description pg failing fails readiness. Optional stores only degrade it
// @Tags Meta
// @Produce json
// @Success 200 {object} ReadyResponse
// @Router /meta/ready [get]
func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	deps := []struct {
		name string
		c    any
	}{{"pg", h.deps.PG}, {"ch", h.deps.CH}, {"redis", h.deps.RDS}}

	checks := make([]ReadyCheck, len(deps))
	var wg sync.WaitGroup
	for i, d := range deps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			checks[i] = probe(ctx, d.name, d.c)
		}()
	}
	wg.Wait()

	return ReadyResponse{
		Status: overall(checks),
		Checks: checks,
		Now:    time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func probe(ctx context.Context, name string, c any) ReadyCheck {
	if c == nil {
		return ReadyCheck{Name: name, Status: "skipped"}
	}
	p, ok := c.(Pinger)
	if !ok {
		return ReadyCheck{Name: name, Status: "unknown"}
	}
	if err := p.Ping(ctx); err != nil {
		return ReadyCheck{Name: name, Status: "fail", Error: err.Error()}
	}
	return ReadyCheck{Name: name, Status: "ok"}
}

func overall(checks []ReadyCheck) string {
	status := "ok"
	for _, c := range checks {
		if c.Status != "fail" {
			continue
		}
		if c.Name == "pg" {
			return "fail"
		}
		status = "degraded"
	}
	return status
}

// @Summary Build and version info
// @Tags Meta
// @Produce json
// @Success 200 {object} version.BuildInfo
// @Router /meta/version [get]
func (h *handlers) version(_ *http.Request) (any, error) {
	return version.Info(), nil
}

// @Summary Process info, uptime and composed modules
// @Tags Meta
// @Produce json
// @Success 200 {object} ServiceResponse
// @Router /meta/service [get]
func (h *handlers) service(_ *http.Request) (any, error) {
	var mods []string
	if h.deps.Modules != nil {
		mods = h.deps.Modules()
		sort.Strings(mods)
	}
	return ServiceResponse{
		Name:    h.deps.ServiceName,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(time.Since(h.deps.StartedAt) / time.Second),
		Modules: mods,
	}, nil
}

// @Summary Content rule pack version and size
// @Tags Meta
// @Produce json
// @Success 200 {object} RulesResponse
// @Router /meta/rules [get]
func (h *handlers) rules(_ *http.Request) (any, error) {
	p, err := rulepack.Load()
	if err != nil {
		return nil, err
	}
	return RulesResponse{
		PackVersion: p.Version,
		Terms:       len(p.Lemmas),
		Patterns:    len(p.Patterns),
		Build:       version.Info(),
	}, nil
}
