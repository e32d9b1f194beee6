package module

import (
	"strings"

	"transitplan/internal/modkit/swaggerkit"
)

type route struct {
	method, path, summary string
}

var routes = []route{
	{"get", "/lines", "Active lines"},
	{"get", "/duties", "Duties of a line running on a date"},
	{"get", "/drivers", "Active drivers"},
	{"get", "/filters", "Availability filters and their default state"},
	{"get", "/schedule", "Assignments on one date"},
	{"post", "/schedule", "Assign a driver to a duty shift on one day"},
	{"get", "/schedule/monthly", "Assignments of a line in a month"},
	{"delete", "/schedule/{id}/{date}", "Delete an assignment's duty shift for its driver on that day"},
	{"delete", "/schedule/monthly/{id}/{date}", "Delete a driver's duty shift across a month"},
	{"get", "/drivers-availability", "Classify drivers for a duty shift"},
	{"post", "/expand", "Preview the days of a monthly pattern and their conflicts"},
	{"post", "/monthly-schedule", "Commit a monthly pattern and return the summary"},
	{"get", "/monthly-schedule-stream", "Commit a monthly pattern with server sent progress events"},
	{"get", "/monthly-driver-report", "Worked and free days of every driver in a month"},
}

// docPaths adds the module's operations under prefix
func docPaths(prefix string) swaggerkit.SpecMutator {
	return func(spec map[string]any) {
		paths, ok := spec["paths"].(map[string]any)
		if !ok {
			paths = map[string]any{}
			spec["paths"] = paths
		}
		for _, rt := range routes {
			p := strings.TrimSuffix(prefix, "/") + rt.path
			node, ok := paths[p].(map[string]any)
			if !ok {
				node = map[string]any{}
				paths[p] = node
			}
			node[rt.method] = map[string]any{
				"tags":      []any{"Planning"},
				"summary":   rt.summary,
				"responses": map[string]any{"200": map[string]any{"description": "OK"}},
			}
		}
	}
}
