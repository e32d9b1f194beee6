package httpkit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	perrs "transitplan/internal/platform/errors"
)

func withParams(kv ...string) *http.Request {
	rc := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rc.URLParams.Add(kv[i], kv[i+1])
	}
	r := httptest.NewRequest(http.MethodDelete, "/", nil)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
}

func TestParamInt64(t *testing.T) {
	t.Parallel()

	r := withParams("id", " 42 ", "date", "2024-03-04")
	if n, err := ParamInt64(r, "id"); err != nil || n != 42 {
		t.Fatalf("id = %d, %v", n, err)
	}
	if got := Param(r, "date"); got != "2024-03-04" {
		t.Fatalf("date = %q", got)
	}
	for _, bad := range []string{"", "x", "-3", "0"} {
		_, err := ParamInt64(withParams("id", bad), "id")
		if !perrs.IsCode(err, perrs.ErrorCodeValidation) {
			t.Fatalf("%q: want validation, got %v", bad, err)
		}
		if perrs.HTTPStatus(err) != http.StatusBadRequest {
			t.Fatalf("%q: status %d, want 400", bad, perrs.HTTPStatus(err))
		}
	}
}
