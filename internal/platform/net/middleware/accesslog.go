package middleware

import (
	"net/http"
	"strconv"
	"time"

	"harborlist/internal/platform/logger"
	"harborlist/internal/platform/metrics"
	pnet "harborlist/internal/platform/net"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// AccessLog writes one line per request and observes metrics.HTTPRequests.
// It also puts the request id on the context so logger.C picks it up
// downstream. 5xx logs at error, requests slower than slow at warn
func AccessLog(slow time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r = r.WithContext(logger.WithRequest(r.Context(), pnet.RequestID(r.Context()), ""))
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routeOf(r)
			metrics.HTTPRequests.
				WithLabelValues(r.Method, route, strconv.Itoa(status/100)+"xx").
				Observe(elapsed.Seconds())

			log := logger.C(r.Context())
			evt := log.Info()
			switch {
			case status >= http.StatusInternalServerError:
				evt = log.Error()
			case slow > 0 && elapsed >= slow:
				evt = log.Warn()
			}
			evt.Int("status", status).
				Dur("elapsed", elapsed).
				Str("method", r.Method).
				Str("route", route).
				Str("path", r.URL.Path).
				Int("bytes", ww.BytesWritten()).
				Msg("request done")
		})
	}
}

// routeOf is the chi pattern that matched, e.g. /api/v1/listings/{id}
func routeOf(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
