// Package http writes planner responses in the shared envelope and adapts chi to the platform router
package http

import (
	"encoding/json"
	stdhttp "net/http"

	lumnet "transitplan/internal/platform/net"
)

// Envelope is the body of every JSON response
type Envelope = lumnet.Wire

// JSON writes v as application/json with the given status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RespondError maps err into an envelope and writes it
func RespondError(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	status, body := lumnet.Error(err, lumnet.RequestID(r.Context()))
	JSON(w, status, body)
}

// Response is what return style handlers produce
// Body holding an error turns into an error envelope
type Response struct {
	Status int
	Body   any
	Header stdhttp.Header
}

// Handle adapts a Response returning handler to net/http
func Handle(h func(r *stdhttp.Request) Response) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		h(r).write(w, r)
	}
}

func (resp Response) write(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	for k, vv := range resp.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	if err, ok := resp.Body.(error); ok && err != nil {
		RespondError(w, r, err)
		return
	}
	status := resp.Status
	if status == 0 {
		status = stdhttp.StatusOK
	}
	if status == stdhttp.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	JSON(w, status, lumnet.Success(status, resp.Body, lumnet.RequestID(r.Context())))
}

// OK returns a 200 response
func OK(data any) Response { return Response{Status: stdhttp.StatusOK, Body: data} }

// Created returns a 201 response
func Created(data any) Response { return Response{Status: stdhttp.StatusCreated, Body: data} }

// NoContent returns a 204 response
func NoContent() Response { return Response{Status: stdhttp.StatusNoContent} }

// Error returns a response mapping err to status and envelope
func Error(err error) Response { return Response{Body: err} }
