// Package http is the HTTP edge of harborlist: the chi adapter, the server
// and the enveloped response writer handlers return through
package http

import (
	"encoding/json"
	stdhttp "net/http"

	lumnet "harborlist/internal/platform/net"
)

// Envelope is the body of every response
type Envelope = lumnet.Wire

// JSON writes v as application/json with the given status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Response is what return-style handlers hand back. An error Body is
// rendered as an error envelope with the status the error maps to
type Response struct {
	Status int
	Body   any
	Header stdhttp.Header
}

// Handle adapts a Response-returning handler to net/http
func Handle(h func(r *stdhttp.Request) Response) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		h(r).Write(w, r)
	}
}

// Write renders resp onto w
func (resp Response) Write(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	for k, vv := range resp.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	if resp.Status == stdhttp.StatusNoContent {
		w.WriteHeader(stdhttp.StatusNoContent)
		return
	}
	err, _ := resp.Body.(error)
	data := resp.Body
	if err != nil {
		data = nil
	}
	status, env := lumnet.Reply(resp.Status, data, err, lumnet.RequestID(r.Context()))
	JSON(w, status, env)
}

// OK returns a 200 response
func OK(data any) Response { return Response{Status: stdhttp.StatusOK, Body: data} }

// Created returns a 201 response
func Created(data any) Response { return Response{Status: stdhttp.StatusCreated, Body: data} }

// NoContent returns a 204 response
func NoContent() Response { return Response{Status: stdhttp.StatusNoContent} }

// Error returns a response that maps err to its status and envelope
func Error(err error) Response { return Response{Body: err} }
