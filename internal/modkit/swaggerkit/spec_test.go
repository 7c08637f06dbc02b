package swaggerkit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	phttp "harborlist/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

const swagger2 = `{
	"swagger": "2.0",
	"info": {"title": "harborlist API", "version": "1"},
	"paths": {
		"/listings/{id}": {
			"get": {"responses": {"200": {"description": "ok"}, "400": {"description": "bad id"}}},
			"parameters": []
		}
	}
}`

func TestDecode_LiftsAndDecorates(t *testing.T) {
	t.Parallel()

	spec, err := decode(swagger2)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if _, ok := spec["swagger"]; ok || spec["openapi"] != "3.0.3" {
		t.Fatalf("version got=%v/%v", spec["swagger"], spec["openapi"])
	}
	servers := spec["servers"].([]any)
	if servers[0].(map[string]any)["url"] != BasePath {
		t.Fatalf("servers got=%v", servers)
	}
	if _, ok := spec["components"].(map[string]any)["schemas"].(map[string]any)["ErrorResponse"]; !ok {
		t.Fatalf("ErrorResponse schema missing")
	}

	resps := spec["paths"].(map[string]any)["/listings/{id}"].(map[string]any)["get"].(map[string]any)["responses"].(map[string]any)
	if resps["400"].(map[string]any)["description"] != "bad id" {
		t.Fatalf("declared 400 overwritten: %v", resps["400"])
	}
	if _, ok := resps["500"]; !ok {
		t.Fatalf("default 500 missing")
	}
}

func TestDecode_DownsamplesOAS31(t *testing.T) {
	t.Parallel()

	spec, err := decode(`{"openapi":"3.1.0","servers":[{"url":"/x"}],"paths":{}}`)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if spec["openapi"] != "3.0.3" {
		t.Fatalf("openapi got=%v", spec["openapi"])
	}
	if spec["servers"].([]any)[0].(map[string]any)["url"] != "/x" {
		t.Fatalf("declared servers replaced")
	}
}

func TestDecode_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := decode(`{`); err == nil {
		t.Fatalf("want parse error")
	}
}

func TestMount(t *testing.T) {
	t.Parallel()

	off := chi.NewRouter()
	Mount(phttp.AdaptChi(off), false)
	rec := httptest.NewRecorder()
	off.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/docs/doc.json", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("disabled status got=%d", rec.Code)
	}

	on := chi.NewRouter()
	Mount(phttp.AdaptChi(on), true)
	rec = httptest.NewRecorder()
	on.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/docs/doc.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status got=%d", rec.Code)
	}
	var spec map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &spec); err != nil || spec["openapi"] != "3.0.3" {
		t.Fatalf("spec got=%v err=%v", spec, err)
	}

	rec = httptest.NewRecorder()
	on.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/docs", nil))
	if rec.Code != http.StatusPermanentRedirect {
		t.Fatalf("redirect got=%d", rec.Code)
	}
}
