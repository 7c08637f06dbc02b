//go:build integration_pg

package repo_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"harborlist/internal/platform/store/pgtest"
	"harborlist/internal/services/outbox/repo"

	"github.com/google/uuid"
)

func TestOutboxRepo_PG(t *testing.T) {
	s := pgtest.Open(t)
	ctx := context.Background()
	r := repo.NewPG().Bind(s.PG)
	t0 := time.Now().UTC().Truncate(time.Millisecond)

	a, b := uuid.NewString(), uuid.NewString()
	for i, id := range []string{a, b} {
		body := json.RawMessage(`{"event_type":"listing.created"}`)
		if err := r.Insert(ctx, id, "listing.created", uuid.NewString(), body, t0.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	leased, err := r.Lease(ctx, "w1", 10, t0.Add(time.Minute), time.Minute)
	if err != nil {
		t.Fatalf("lease: %v", err)
	}
	if len(leased) != 2 || leased[0].ID != a || leased[0].Attempts != 1 {
		t.Fatalf("lease got=%+v", leased)
	}

	t.Run("leased rows are not leased again until the lease expires", func(t *testing.T) {
		again, err := r.Lease(ctx, "w2", 10, t0.Add(time.Minute), time.Minute)
		if err != nil || len(again) != 0 {
			t.Fatalf("second lease got=%d err=%v", len(again), err)
		}
	})

	if err := r.MarkDelivered(ctx, a, t0.Add(time.Minute)); err != nil {
		t.Fatalf("delivered: %v", err)
	}
	if err := r.Reschedule(ctx, b, t0.Add(time.Hour), "kafka down"); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	t.Run("rescheduled row waits for its next attempt", func(t *testing.T) {
		got, _ := r.Lease(ctx, "w1", 10, t0.Add(30*time.Minute), time.Minute)
		if len(got) != 0 {
			t.Fatalf("early lease got=%d", len(got))
		}
		got, _ = r.Lease(ctx, "w1", 10, t0.Add(2*time.Hour), time.Minute)
		if len(got) != 1 || got[0].ID != b || got[0].Attempts != 2 {
			t.Fatalf("late lease got=%+v", got)
		}
	})

	t.Run("dead rows leave the backlog", func(t *testing.T) {
		if err := r.MarkDead(ctx, b, "gave up"); err != nil {
			t.Fatalf("dead: %v", err)
		}
		n, err := r.Backlog(ctx)
		if err != nil || n != 0 {
			t.Fatalf("backlog got=%d err=%v", n, err)
		}
	})
}
