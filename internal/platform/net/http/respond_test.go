package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	perr "harborlist/internal/platform/errors"
	lumnet "harborlist/internal/platform/net"
	phttp "harborlist/internal/platform/net/http"
)

func serveResp(t *testing.T, resp phttp.Response) (*httptest.ResponseRecorder, phttp.Envelope) {
	t.Helper()
	h := phttp.Handle(func(*http.Request) phttp.Response { return resp })
	req := httptest.NewRequest(http.MethodGet, "/listings/x", nil)
	req = req.WithContext(lumnet.WithRequest(req.Context(), "rid-1"))
	rec := httptest.NewRecorder()
	h(rec, req)

	var env phttp.Envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode: %v body=%s", err, rec.Body.String())
		}
	}
	return rec, env
}

func TestJSON_SetsContentType(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	phttp.JSON(rec, http.StatusAccepted, map[string]any{"k": "v"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status got=%d want=%d", rec.Code, http.StatusAccepted)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("content-type got=%q", ct)
	}
}

func TestHandle_SuccessEnvelopes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		resp phttp.Response
		want int
	}{
		{"ok", phttp.OK(map[string]string{"status": "active"}), http.StatusOK},
		{"created", phttp.Created(map[string]string{"listingId": "l1"}), http.StatusCreated},
		{"zero status", phttp.Response{Body: "x"}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := serveResp(t, tc.resp)
			if rec.Code != tc.want || env.StatusCode != tc.want {
				t.Fatalf("status got=%d/%d want=%d", rec.Code, env.StatusCode, tc.want)
			}
			if env.RequestID != "rid-1" || env.Data == nil {
				t.Fatalf("envelope got=%+v", env)
			}
		})
	}
}

func TestHandle_NoContentHasNoBody(t *testing.T) {
	t.Parallel()

	rec, _ := serveResp(t, phttp.NoContent())
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Fatalf("got code=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestHandle_ErrorCarriesFieldAndState(t *testing.T) {
	t.Parallel()

	rec, env := serveResp(t, phttp.Error(perr.InvalidStatef("sold", "listing is sold")))
	if rec.Code != http.StatusConflict {
		t.Fatalf("status got=%d want=%d", rec.Code, http.StatusConflict)
	}
	if env.Code != perr.ErrorCodeInvalidState || env.State != "sold" {
		t.Fatalf("envelope got=%+v", env)
	}

	rec, env = serveResp(t, phttp.Error(perr.Validationf("title", "title is required")))
	if rec.Code != http.StatusBadRequest || env.Field != "title" {
		t.Fatalf("got code=%d env=%+v", rec.Code, env)
	}
}

func TestHandle_HeadersCopied(t *testing.T) {
	t.Parallel()

	hdr := http.Header{}
	hdr.Set("Content-Location", "/api/v1/listings/beneteau-oceanis-38")
	rec, _ := serveResp(t, phttp.Response{Status: http.StatusOK, Body: "x", Header: hdr})
	if got := rec.Header().Get("Content-Location"); got != "/api/v1/listings/beneteau-oceanis-38" {
		t.Fatalf("header got=%q", got)
	}
}
