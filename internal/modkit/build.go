package modkit

import "net/http"

// Option adjusts how a module is built
type Option func(*Built)

// Built is the resolved build configuration a module constructor reads
type Built struct {
	Name      string
	Prefix    string
	Mw        []func(http.Handler) http.Handler
	SwaggerOn bool
}

// WithName sets the name used in logs and the port registry
func WithName(name string) Option { return func(b *Built) { b.Name = name } }

// WithPrefix sets the mount path under the versioned API
func WithPrefix(prefix string) Option { return func(b *Built) { b.Prefix = prefix } }

// WithMiddlewares appends per module middleware, outermost first
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(b *Built) { b.Mw = append(b.Mw, mw...) }
}

// WithSwagger makes the module contribute its paths to the API document
func WithSwagger(enabled bool) Option { return func(b *Built) { b.SwaggerOn = enabled } }

// Build applies opts in order; later options win
func Build(opts ...Option) Built {
	var b Built
	for _, o := range opts {
		o(&b)
	}
	b.Mw = append([]func(http.Handler) http.Handler(nil), b.Mw...)
	return b
}
