package middleware

import (
	"net/http"
	"runtime/debug"

	perr "harborlist/internal/platform/errors"
	"harborlist/internal/platform/logger"
	phttp "harborlist/internal/platform/net/http"
)

// Recover turns a handler panic into a 500 envelope and logs the stack.
// http.ErrAbortHandler is re-raised so the server can drop the connection
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			logger.C(r.Context()).Error().
				Interface("panic", v).
				Str("stack", string(debug.Stack())).
				Msg("panic recovered")
			phttp.Error(perr.PanicErrf("panic: %v", v)).Write(w, r)
		}()
		next.ServeHTTP(w, r)
	})
}
