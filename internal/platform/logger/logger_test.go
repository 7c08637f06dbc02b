package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zerolog.Level{
		"trace":    zerolog.TraceLevel,
		"INFO":     zerolog.InfoLevel,
		" warn ":   zerolog.WarnLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"":         zerolog.DebugLevel,
		"chatty":   zerolog.DebugLevel,
		"disabled": zerolog.Disabled,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) got=%v want=%v", in, got, want)
		}
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("LOG_CALLER", "true")
	t.Setenv("LOG_SAMPLE_EVERY", "5")

	opt := FromEnv("harborlist-relay")
	if opt.Level != "warn" || opt.Format != "json" || !opt.WithCaller || opt.SampleEvery != 5 {
		t.Fatalf("got=%+v", opt)
	}
	if opt.Service != "harborlist-relay" {
		t.Fatalf("service got=%q want default", opt.Service)
	}

	t.Setenv("LOG_SERVICE", "relay-canary")
	if got := FromEnv("harborlist-relay").Service; got != "relay-canary" {
		t.Fatalf("service override got=%q", got)
	}
}

// lines decodes newline delimited JSON log output
func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, ln := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if ln == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(ln), &m); err != nil {
			t.Fatalf("decode %q: %v", ln, err)
		}
		out = append(out, m)
	}
	return out
}

// TestRootLogger is the only test that calls Init, which is process wide
func TestRootLogger(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "info", Format: "json", Service: "harborlist-api", Writer: &buf})
	Init(Options{Level: "debug", Service: "ignored"})

	Get().Debug().Msg("dropped")
	Named("listings").Info().Msg("listing created")
	ctx := WithRequest(context.Background(), "req-7", "owner-1")
	C(ctx).Info().Msg("moderated")
	C(context.Background()).Info().Msg("no ids")

	got := lines(t, &buf)
	if len(got) != 3 {
		t.Fatalf("lines got=%d want=3: %s", len(got), buf.String())
	}
	if got[0]["component"] != "listings" || got[0]["service"] != "harborlist-api" {
		t.Fatalf("named line got=%v", got[0])
	}
	if got[1]["request_id"] != "req-7" || got[1]["actor_id"] != "owner-1" {
		t.Fatalf("ctx line got=%v", got[1])
	}
	if _, ok := got[2]["request_id"]; ok {
		t.Fatalf("empty ctx added request_id: %v", got[2])
	}
	if Named("") != Get() {
		t.Fatalf("blank component should return root")
	}
}
