// Package middleware is the request pipeline in front of every API route
package middleware

import (
	"compress/flate"
	"net/http"
	"time"

	pstrings "harborlist/internal/platform/strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Options tunes Stack
type Options struct {
	// Origins allowed by CORS. Empty allows any origin without credentials
	Origins []string

	// Timeout cancels the request context. Zero disables it
	Timeout time.Duration

	// Slow logs requests taking at least this long at warn. Zero disables it
	Slow time.Duration
}

// Stack returns the middleware every API scope runs, outermost first
func Stack(o Options) []func(http.Handler) http.Handler {
	s := []func(http.Handler) http.Handler{
		chimw.RequestID,
		chimw.RealIP,
		AccessLog(o.Slow),
		Recover,
		chimw.NoCache,
		cors.Handler(cors.Options{
			AllowedOrigins: pstrings.IfEmpty(o.Origins, []string{"*"}),
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}),
		chimw.Compress(flate.BestSpeed),
		chimw.StripSlashes,
	}
	if o.Timeout > 0 {
		s = append(s, chimw.Timeout(o.Timeout))
	}
	return s
}
