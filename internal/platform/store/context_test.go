package store

import (
	"context"
	"testing"
)

func TestAttempt_SetAndGet(t *testing.T) {
	t.Parallel()

	if got := Attempt(context.Background()); got != 0 {
		t.Fatalf("Attempt on base got=%d want=0", got)
	}
	ctx := WithAttempt(context.Background(), 2)
	if got := Attempt(ctx); got != 2 {
		t.Fatalf("Attempt got=%d want=2", got)
	}
}

// TestAttempt_NoLeak ensures adding value returns a new ctx and base has no value
func TestAttempt_NoLeak(t *testing.T) {
	t.Parallel()

	base := context.Background()
	_ = WithAttempt(base, 5)
	if got := Attempt(base); got != 0 {
		t.Fatalf("base ctx should be untouched, got %d", got)
	}
}
