package store

import "context"

type attemptKey struct{}

// WithAttempt records which try of a retried transaction ctx belongs to
func WithAttempt(ctx context.Context, n int) context.Context {
	return context.WithValue(ctx, attemptKey{}, n)
}

// Attempt returns the 1 based attempt number, or 0 outside RunTx
func Attempt(ctx context.Context) int {
	n, _ := ctx.Value(attemptKey{}).(int)
	return n
}
