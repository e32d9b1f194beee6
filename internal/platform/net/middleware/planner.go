package middleware

import (
	"net/http"
	"strconv"
	"strings"

	perr "transitplan/internal/platform/errors"
	"transitplan/internal/platform/logger"
	pnet "transitplan/internal/platform/net"
)

// PlannerHeader carries the id of the planner the gateway authenticated
const PlannerHeader = "X-Planner-ID"

// Planner copies PlannerHeader and the request id into the request and log contexts
// a missing header leaves the request anonymous; a malformed one is rejected with 400
func Planner(write func(w http.ResponseWriter, status int, body any)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			reqID := pnet.RequestID(ctx)

			var id int64
			if raw := strings.TrimSpace(r.Header.Get(PlannerHeader)); raw != "" {
				n, err := strconv.ParseInt(raw, 10, 64)
				if err != nil || n <= 0 {
					err := perr.WithField(perr.Newf(perr.ErrorCodeValidation, "%s must be a positive integer", PlannerHeader), PlannerHeader)
					status, body := pnet.Error(err, reqID)
					write(w, status, body)
					return
				}
				id = n
			}

			ctx = pnet.WithPlanner(ctx, id)
			ctx = logger.WithRequest(ctx, reqID, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
