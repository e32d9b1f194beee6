// Package net carries request scoped values shared by transports
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey struct{}

var plannerKey ctxKey

// WithRequest sets the request id where chi's middleware would
func WithRequest(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		return ctx
	}
	return context.WithValue(ctx, chimw.RequestIDKey, reqID)
}

// RequestID returns the request id on ctx, empty when absent
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// WithPlanner records the id of the planner acting on this request
// ids <= 0 leave ctx unchanged
func WithPlanner(ctx context.Context, id int64) context.Context {
	if id <= 0 {
		return ctx
	}
	return context.WithValue(ctx, plannerKey, id)
}

// PlannerID returns the acting planner, zero when anonymous
func PlannerID(ctx context.Context) int64 {
	id, _ := ctx.Value(plannerKey).(int64)
	return id
}
