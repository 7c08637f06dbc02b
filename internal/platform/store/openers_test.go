package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

// nothing listens on port 1
const closedPortDSN = "postgres://u:p@127.0.0.1:1/harborlist?sslmode=disable"

func TestOpenPG_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err := openPG(ctx, Config{PG: PGConfig{URL: closedPortDSN, ConnectRetries: 5}}, &Store{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err got=%v want=%v", err, context.Canceled)
	}
	if d := time.Since(start); d > time.Second {
		t.Fatalf("took %v, want fast failure", d)
	}
}

func TestOpenPG_GivesUp(t *testing.T) {
	t.Parallel()

	cfg := Config{PG: PGConfig{URL: closedPortDSN, ConnectRetries: 2, PingTimeout: 200 * time.Millisecond}}
	if _, err := openPG(context.Background(), cfg, &Store{}); err == nil {
		t.Fatalf("want ping failure")
	}
}

func TestAppName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		app, role, want string
	}{
		{"harborlist", "relay", "harborlist-relay"},
		{"harborlist", "", "harborlist"},
		{"", "sweeper", "sweeper"},
		{"", "", ""},
	}
	for _, tc := range cases {
		if got := appName(Config{AppName: tc.app, Role: tc.role}); got != tc.want {
			t.Fatalf("appName(%q,%q) got=%q want=%q", tc.app, tc.role, got, tc.want)
		}
	}
}
