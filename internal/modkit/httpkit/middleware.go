package httpkit

import (
	"net/http"

	"harborlist/internal/platform/net/middleware"
)

// StackOptions tunes CommonStack
type StackOptions = middleware.Options

// CommonStack is the middleware every versioned API scope runs.
// Compose auth on top in the service wiring
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	return middleware.Stack(o)
}

// OptionalAuth resolves the caller when a bearer token is sent and admits anonymous requests
func OptionalAuth(p middleware.AuthPort) func(http.Handler) http.Handler {
	return middleware.OptionalAuth(p)
}
