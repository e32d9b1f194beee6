package swaggerkit

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	phttp "transitplan/internal/platform/net/http"
)

// Mount serves the UI under /api/docs/ and the document at /api/docs/doc.json
func Mount(r phttp.Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get("/api/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/docs/", http.StatusPermanentRedirect)
	})
	r.Get("/api/docs/doc.json", serveDocJSON)
	r.Handle("/api/docs/*", httpSwagger.Handler(
		httpSwagger.InstanceName("api"),
		httpSwagger.URL("/api/docs/doc.json"),
	))
}
