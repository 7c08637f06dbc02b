package modkit

import (
	"net/http"

	"harborlist/internal/modkit/httpkit"
)

// Built is the resolved option set a module keeps
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
	Ports  any

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)
}

// Build applies opts in order. Later options win
func Build(opts ...Option) Built {
	var c buildCfg
	for _, o := range opts {
		o(&c)
	}
	return Built{
		Name:      c.name,
		Prefix:    c.prefix,
		Mw:        append([]func(http.Handler) http.Handler(nil), c.mw...),
		Ports:     c.ports,
		subrouter: c.subrouter,
		register:  c.register,
	}
}

// Mount routes own under Prefix with the module middleware applied, then
// any routes added through WithRegister
func (b Built) Mount(r httpkit.Router, own func(httpkit.Router)) {
	r.Route(b.Prefix, func(rr httpkit.Router) {
		for _, mw := range b.Mw {
			rr.Use(mw)
		}
		if b.subrouter != nil {
			rr = b.subrouter(rr)
		}
		if own != nil {
			own(rr)
		}
		if b.register != nil {
			b.register(rr)
		}
	})
}
