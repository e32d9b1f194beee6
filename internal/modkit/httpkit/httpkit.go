// Package httpkit is what modules use to mount routes; it re-exports the platform http types
// so modules do not import internal/platform/net/http directly
package httpkit

import (
	"net/http"

	pnet "transitplan/internal/platform/net"
	phttp "transitplan/internal/platform/net/http"
)

type (
	// Envelope is the response body shape
	Envelope = phttp.Envelope

	// Response is what return style handlers produce
	Response = phttp.Response

	// Handler is the platform handler type
	Handler = phttp.Handler

	// Router is the platform router seam
	Router = phttp.Router
)

// Created returns a 201 response
func Created(data any) Response { return phttp.Created(data) }

// NoContent returns a 204 response
func NoContent() Response { return phttp.NoContent() }

// Actor returns the planner acting on r, zero when anonymous
func Actor(r *http.Request) int64 { return pnet.PlannerID(r.Context()) }

// Get mounts a GET handler without input
func Get(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, phttp.CallHandler(h))
}

// Delete mounts a DELETE handler without input; path params are read with Param
func Delete(r Router, path string, h func(*http.Request) (any, error)) {
	r.Delete(path, phttp.CallHandler(h))
}

// GetQuery mounts a GET handler whose input is bound from the query string
func GetQuery[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Get(path, phttp.QueryHandler(h))
}

// DeleteQuery mounts a DELETE handler whose input is bound from the query string
func DeleteQuery[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Delete(path, phttp.QueryHandler(h))
}

// PostJSON mounts a POST handler; the body is decoded and validated before h runs
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Post(path, phttp.JSONHandler(h))
}

// MountAPIV1 mounts mw and then the routes registered by mount under /api/v1
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Route("/api/v1", func(api Router) {
		if len(mw) > 0 {
			api.Use(mw...)
		}
		mount(api)
	})
}
