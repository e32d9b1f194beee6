// Package middleware holds the planner's HTTP middlewares, thin chi adapters and in house ones
package middleware

import (
	"net/http"
	"time"

	pstrings "transitplan/internal/platform/strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
)

// RequestID attaches or propagates X-Request-ID
func RequestID() func(http.Handler) http.Handler { return chimw.RequestID }

// RealIP sets RemoteAddr from X-Forwarded-For or X-Real-IP
func RealIP() func(http.Handler) http.Handler { return chimw.RealIP }

// Timeout cancels the request context after d
func Timeout(d time.Duration) func(http.Handler) http.Handler { return chimw.Timeout(d) }

// NoCache disables client and proxy caching; schedules change under planners' feet
func NoCache() func(http.Handler) http.Handler { return chimw.NoCache }

// Compress compresses chi's default content types; text/event-stream is not among them
func Compress(level int) func(http.Handler) http.Handler {
	c := chimw.NewCompressor(level)
	return c.Handler
}

// StripSlashes strips a trailing slash from the request path
func StripSlashes() func(http.Handler) http.Handler { return chimw.StripSlashes }

// Heartbeat answers GET path with 200 before routing, for load balancers
func Heartbeat(path string) func(http.Handler) http.Handler { return chimw.Heartbeat(path) }

// CORSOptions is a narrow surface over go-chi/cors
type CORSOptions struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// CORS wraps go-chi/cors with the planner's methods and headers as defaults
func CORS(o CORSOptions) func(http.Handler) http.Handler {
	return chicors.Handler(chicors.Options{
		AllowedOrigins: o.AllowedOrigins,
		AllowedMethods: pstrings.IfEmpty(o.AllowedMethods, []string{"GET", "POST", "DELETE", "OPTIONS"}),
		AllowedHeaders: pstrings.IfEmpty(o.AllowedHeaders, []string{"Accept", "Content-Type", "Last-Event-ID", "X-Request-ID", PlannerHeader}),
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         o.MaxAge,
	})
}
