package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	phttp "harborlist/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

func serve(t *testing.T, d Deps, path string, out any) int {
	t.Helper()
	mux := chi.NewRouter()
	Register(phttp.AdaptChi(mux), d)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v body=%s", err, rec.Body.String())
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	return rec.Code
}

func down(err error) PingFunc { return func(context.Context) error { return err } }

func TestReady(t *testing.T) {
	t.Parallel()

	refused := errors.New("connection refused")
	cases := []struct {
		name string
		deps Deps
		want string
	}{
		{"all up", Deps{PG: down(nil), CH: down(nil), RDS: down(nil)}, "ok"},
		{"optional stores off", Deps{PG: down(nil)}, "ok"},
		{"redis down", Deps{PG: down(nil), RDS: down(refused)}, "degraded"},
		{"pg down", Deps{PG: down(refused), CH: down(refused)}, "fail"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got ReadyResponse
			if code := serve(t, tc.deps, "/ready", &got); code != http.StatusOK {
				t.Fatalf("status got=%d", code)
			}
			if got.Status != tc.want || len(got.Checks) != 3 {
				t.Fatalf("got=%+v want status=%s", got, tc.want)
			}
		})
	}
}

func TestProbe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if c := probe(ctx, "ch", nil); c.Status != "skipped" {
		t.Fatalf("nil got=%+v", c)
	}
	if c := probe(ctx, "ch", struct{}{}); c.Status != "unknown" {
		t.Fatalf("non pinger got=%+v", c)
	}
	c := probe(ctx, "pg", down(errors.New("timeout")))
	if c.Status != "fail" || c.Error != "timeout" {
		t.Fatalf("failing got=%+v", c)
	}
}

func TestService_ListsModulesSorted(t *testing.T) {
	t.Parallel()

	d := Deps{
		ServiceName: "harborlist-api",
		StartedAt:   time.Now().Add(-time.Minute),
		Modules:     func() []string { return []string{"queue", "listings", "meta"} },
	}
	var got ServiceResponse
	serve(t, d, "/service", &got)
	if got.Name != "harborlist-api" || got.Uptime < 59 {
		t.Fatalf("got=%+v", got)
	}
	if len(got.Modules) != 3 || got.Modules[0] != "listings" || got.Modules[2] != "queue" {
		t.Fatalf("modules got=%v", got.Modules)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	var got HealthResponse
	if code := serve(t, Deps{ServiceName: "harborlist-api"}, "/health", &got); code != http.StatusOK || !got.OK {
		t.Fatalf("code=%d got=%+v", code, got)
	}
}
