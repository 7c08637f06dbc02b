package middleware

import (
	"net/http"
	"strings"

	"harborlist/internal/platform/logger"
	pnet "harborlist/internal/platform/net"
	phttp "harborlist/internal/platform/net/http"
)

// AuthPort resolves the caller behind a request
type AuthPort interface {
	// Parse returns a user id and the granted roles or an error
	Parse(r *http.Request) (userID string, roles []string, err error)
}

// OptionalAuth resolves the caller when an Authorization header is present
// and lets anonymous requests through untouched. A header the port rejects
// gets the error envelope. A nil port passes everything through
func OptionalAuth(p AuthPort) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if p == nil || strings.TrimSpace(r.Header.Get("Authorization")) == "" {
				next.ServeHTTP(w, r)
				return
			}
			uid, roles, err := p.Parse(r)
			if err != nil {
				phttp.Error(err).Write(w, r)
				return
			}
			ctx := pnet.WithUser(r.Context(), uid)
			ctx = pnet.WithRoles(ctx, roles)
			ctx = logger.WithRequest(ctx, pnet.RequestID(ctx), uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
