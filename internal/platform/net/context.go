// Package net provides utilities for working with request contexts
package net

import (
	"context"
	"slices"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// ctxKey is an unexported key type for context values
type ctxKey string

const (
	keyRoles  ctxKey = "roles"
	keyUserID ctxKey = "user_id"
)

// WithRequest sets the chi request id so chimw.GetReqID can retrieve it
func WithRequest(ctx context.Context, reqID string) context.Context {
	if reqID != "" {
		ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	}
	return ctx
}

// WithUser annotates context with the authenticated user id
func WithUser(ctx context.Context, userID string) context.Context {
	if userID != "" {
		ctx = context.WithValue(ctx, keyUserID, userID)
	}
	return ctx
}

// WithRoles annotates context with the roles granted by the bearer token
func WithRoles(ctx context.Context, roles []string) context.Context {
	if len(roles) > 0 {
		ctx = context.WithValue(ctx, keyRoles, slices.Clone(roles))
	}
	return ctx
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string {
	if v := chimw.GetReqID(ctx); v != "" {
		return v
	}
	return ""
}

// UserID returns the user id on the context if present
func UserID(ctx context.Context) string {
	if v, ok := ctx.Value(keyUserID).(string); ok {
		return v
	}
	return ""
}

// Roles returns the caller roles on the context if present
func Roles(ctx context.Context) []string {
	if v, ok := ctx.Value(keyRoles).([]string); ok {
		return slices.Clone(v)
	}
	return nil
}

// HasRole reports whether the caller holds any of roles
func HasRole(ctx context.Context, roles ...string) bool {
	have, _ := ctx.Value(keyRoles).([]string)
	for _, r := range roles {
		if slices.Contains(have, r) {
			return true
		}
	}
	return false
}
