// Package swaggerkit assembles the OpenAPI document from module contributions and serves it with the swagger UI
package swaggerkit

import (
	"encoding/json"
	"net/http"
	"sync"

	"transitplan/internal/platform/config"
	perr "transitplan/internal/platform/errors"
)

// SpecMutator adds a module's paths to the document
type SpecMutator func(map[string]any)

var (
	mu       sync.RWMutex
	mutators []SpecMutator
)

// Register queues m; modules call it while they are constructed
func Register(m SpecMutator) {
	if m == nil {
		return
	}
	mu.Lock()
	mutators = append(mutators, m)
	mu.Unlock()
}

// Spec builds a fresh document from every registered mutator
// CORE_API_DOCS_TITLE_SUFFIX is appended to the title, e.g. "(staging)"
func Spec() map[string]any {
	title := "transitplan API"
	if v := config.New().Prefix("CORE_API_").MayString("DOCS_TITLE_SUFFIX", ""); v != "" {
		title += " " + v
	}
	spec := map[string]any{
		"openapi": "3.0.3",
		"info":    map[string]any{"title": title, "version": "1.0.0", "description": "Driver duty planning for transit lines"},
		"servers": []any{map[string]any{"url": "/api/v1"}},
		"paths":   map[string]any{},
		"components": map[string]any{
			"schemas": map[string]any{"Envelope": envelopeSchema()},
		},
	}

	mu.RLock()
	for _, m := range mutators {
		m(spec)
	}
	mu.RUnlock()

	// after mutators so every module path gets them
	addDefaultResponse(spec, "500", errorResponse(http.StatusInternalServerError, perr.ErrorCodePanic, "internal error", ""))
	addDefaultResponse(spec, "400", errorResponse(http.StatusBadRequest, perr.ErrorCodeValidation, "shiftNumber must be a shift between 1 and 3", "shiftNumber"))
	return spec
}

func serveDocJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(Spec())
}

func envelopeSchema() map[string]any {
	prop := func(typ string) map[string]any { return map[string]any{"type": typ} }
	return map[string]any{
		"type":        "object",
		"description": "Every response body; data on success, code and error otherwise",
		"properties": map[string]any{
			"status_code": prop("integer"),
			"status":      prop("string"),
			"code":        prop("integer"),
			"error":       prop("string"),
			"field":       prop("string"),
			"request_id":  prop("string"),
			"data":        map[string]any{},
		},
		"required": []any{"status_code", "status"},
	}
}

func errorResponse(status int, code perr.ErrorCode, msg, field string) map[string]any {
	example := map[string]any{
		"status_code": status,
		"status":      http.StatusText(status),
		"code":        code,
		"error":       msg,
		"request_id":  "planner-7f3a/000042",
	}
	if field != "" {
		example["field"] = field
	}
	return map[string]any{
		"description": http.StatusText(status),
		"content": map[string]any{
			"application/json": map[string]any{
				"schema":  map[string]any{"$ref": "#/components/schemas/Envelope"},
				"example": example,
			},
		},
	}
}

// addDefaultResponse sets resp under status on every operation that lacks one
func addDefaultResponse(spec map[string]any, status string, resp map[string]any) {
	paths, _ := spec["paths"].(map[string]any)
	for _, p := range paths {
		ops, ok := p.(map[string]any)
		if !ok {
			continue
		}
		for _, o := range ops {
			op, ok := o.(map[string]any)
			if !ok {
				continue
			}
			responses, ok := op["responses"].(map[string]any)
			if !ok {
				responses = map[string]any{}
				op["responses"] = responses
			}
			if _, ok := responses[status]; !ok {
				responses[status] = resp
			}
		}
	}
}
