package httpkit

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	perrs "transitplan/internal/platform/errors"
)

// Param returns a trimmed route parameter
func Param(r *http.Request, name string) string {
	return strings.TrimSpace(chi.URLParam(r, name))
}

// ParamInt64 parses a positive integer route parameter
// anything else is a validation error naming the parameter
func ParamInt64(r *http.Request, name string) (int64, error) {
	raw := Param(r, name)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, perrs.WithField(perrs.Newf(perrs.ErrorCodeValidation, "%s must be a positive integer", name), name)
	}
	return n, nil
}
