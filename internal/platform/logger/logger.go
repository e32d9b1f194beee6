// Package logger owns the process wide zerolog logger and request scoped children
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"transitplan/internal/platform/config/raw"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger is the project logging type
type Logger = zerolog.Logger

// Options configures the root logger
type Options struct {
	Level      string
	Format     string // console or json
	Service    string
	Writer     io.Writer
	WithCaller bool
}

// FromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_SERVICE and LOG_CALLER
func FromEnv() Options {
	rc := raw.New().Prefix("LOG_")
	return Options{
		Level:      rc.Get("LEVEL", "info"),
		Format:     strings.ToLower(rc.Get("FORMAT", "console")),
		Service:    rc.Get("SERVICE", "transitplan"),
		WithCaller: rc.GetBool("CALLER", false),
	}
}

var (
	once sync.Once
	root atomic.Pointer[zerolog.Logger]
)

// Get returns the root logger, building it from the environment on first use
func Get() *Logger {
	if l := root.Load(); l != nil {
		return l
	}
	Init(FromEnv())
	return root.Load()
}

// Init builds the root logger; only the first call has any effect
func Init(opt Options) {
	once.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano

		var w io.Writer = os.Stdout
		if opt.Writer != nil {
			w = opt.Writer
		}
		if opt.Format == "console" {
			w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		}

		lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opt.Level)))
		if err != nil || lvl == zerolog.NoLevel {
			lvl = zerolog.InfoLevel
		}

		c := zerolog.New(w).Level(lvl).With().Timestamp()
		if opt.Service != "" {
			c = c.Str("service", opt.Service)
		}
		if opt.WithCaller {
			c = c.Caller()
		}
		l := c.Logger()
		root.Store(&l)
	})
}

type ctxKey uint8

const (
	keyRequestID ctxKey = iota
	keyPlanner
)

// WithRequest stores the request id and acting planner for C
// empty values are skipped
func WithRequest(ctx context.Context, reqID string, planner int64) context.Context {
	if reqID != "" {
		ctx = context.WithValue(ctx, keyRequestID, reqID)
	}
	if planner > 0 {
		ctx = context.WithValue(ctx, keyPlanner, planner)
	}
	return ctx
}

// C returns a child of the root logger carrying request_id and planner_id from ctx
func C(ctx context.Context) *Logger {
	b := Get().With()
	if s, ok := ctx.Value(keyRequestID).(string); ok {
		b = b.Str("request_id", s)
	}
	if id, ok := ctx.Value(keyPlanner).(int64); ok {
		b = b.Int64("planner_id", id)
	}
	l := b.Logger()
	return &l
}

// Named returns a child logger with a component field
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	l := Get().With().Str("component", component).Logger()
	return &l
}
