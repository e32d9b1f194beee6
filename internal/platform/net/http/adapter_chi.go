package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// chiRouter adapts a chi router; root is kept so Mux always serves the whole tree
type chiRouter struct {
	root *chi.Mux
	r    chi.Router
}

// AdaptChi adapts a *chi.Mux to a Router
func AdaptChi(m *chi.Mux) Router { return chiRouter{root: m, r: m} }

func (c chiRouter) Get(p string, h Handler)    { c.r.Method(http.MethodGet, p, http.HandlerFunc(h)) }
func (c chiRouter) Post(p string, h Handler)   { c.r.Method(http.MethodPost, p, http.HandlerFunc(h)) }
func (c chiRouter) Delete(p string, h Handler) { c.r.Method(http.MethodDelete, p, http.HandlerFunc(h)) }

func (c chiRouter) Handle(p string, h http.Handler)           { c.r.Handle(p, h) }
func (c chiRouter) Use(mw ...func(http.Handler) http.Handler) { c.r.Use(mw...) }

func (c chiRouter) Group(fn func(Router)) {
	c.r.Group(func(sub chi.Router) { fn(chiRouter{root: c.root, r: sub}) })
}

func (c chiRouter) Route(pattern string, fn func(Router)) {
	c.r.Route(pattern, func(sub chi.Router) { fn(chiRouter{root: c.root, r: sub}) })
}

// Mux returns the root mux, sub routers included
func (c chiRouter) Mux() http.Handler { return c.root }
