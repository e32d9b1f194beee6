package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	perr "transitplan/internal/platform/errors"
	"transitplan/internal/platform/logger"
	pnet "transitplan/internal/platform/net"
)

// RecoverJSON turns a panic into a 500 envelope and logs the stack
// http.ErrAbortHandler is re-raised so the server aborts the connection as usual
func RecoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			reqID := pnet.RequestID(r.Context())
			logger.C(r.Context()).Error().
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			if reqID != "" {
				w.Header().Set("X-Request-ID", reqID)
			}
			status, body := pnet.Error(perr.PanicErrf("internal error"), reqID)
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(body)
		}()
		next.ServeHTTP(w, r)
	})
}
