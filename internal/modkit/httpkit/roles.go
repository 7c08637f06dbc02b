package httpkit

import (
	"net/http"

	perrs "harborlist/internal/platform/errors"
	pnet "harborlist/internal/platform/net"
	phttp "harborlist/internal/platform/net/http"
)

// RequireRole rejects anonymous callers with 401 and callers holding none of
// roles with 403. Mount it behind OptionalAuth so roles are on the context
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case pnet.UserID(r.Context()) == "":
				phttp.Error(perrs.Unauthorizedf("missing bearer token")).Write(w, r)
			case !pnet.HasRole(r.Context(), roles...):
				phttp.Error(perrs.Forbiddenf("requires one of roles %v", roles)).Write(w, r)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
