//go:build integration_pg

package migrate_test

import (
	"context"
	"testing"
	"time"

	"harborlist/internal/platform/store/migrate"
	"harborlist/internal/platform/store/pgtest"
)

func TestUpDown_Integration(t *testing.T) {
	dsn := pgtest.Start(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := migrate.Open(dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	v, err := migrate.Version(ctx, db)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if v != 3 {
		t.Fatalf("version got=%d want=3", v)
	}

	// idempotent
	if err := migrate.Up(ctx, db); err != nil {
		t.Fatalf("second up: %v", err)
	}

	if err := migrate.Down(ctx, db); err != nil {
		t.Fatalf("down: %v", err)
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM information_schema.tables WHERE table_name = 'outbox_events'`).Scan(&n); err != nil {
		t.Fatalf("query: %v", err)
	}
	if n != 0 {
		t.Fatalf("outbox_events should be dropped after down")
	}
}
