package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	phttp "transitplan/internal/platform/net/http"
	"transitplan/internal/platform/net/middleware"
)

// slowRequest marks access log lines at warn
const slowRequest = 500 * time.Millisecond

// StreamingStack is the versioned API stack without a request timeout
// long lived responses such as event streams mount under it and apply timeouts per route
func StreamingStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.Planner(phttp.JSON),
		middleware.AccessLog(middleware.AccessLogOptions{Slow: slowRequest}),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.CORS(middleware.CORSOptions{}),
		middleware.Compress(flate.BestSpeed),
		middleware.StripSlashes(),
	}
}
