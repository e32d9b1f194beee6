package pg

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"transitplan/internal/platform/logger"
)

// Tracer logs every statement the pool runs; it implements pgx.QueryTracer
// arguments are counted, not logged, since they carry driver names
type Tracer struct {
	log  logger.Logger
	slow time.Duration
	now  func() time.Time
}

var _ pgx.QueryTracer = (*Tracer)(nil)

type traceKey struct{}

type traced struct {
	sql   string
	nargs int
	at    time.Time
}

// NewTracer logs on log at info, slow queries at warn and failures at error
// slow <= 0 never marks a query slow
func NewTracer(log logger.Logger, slow time.Duration) *Tracer {
	return &Tracer{log: log.With().Str("component", "pg").Logger(), slow: slow, now: time.Now}
}

// TraceQueryStart remembers the statement and its start time on ctx
func (t *Tracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, d pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceKey{}, traced{sql: d.SQL, nargs: len(d.Args), at: t.now()})
}

// TraceQueryEnd writes one log line per statement
func (t *Tracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, d pgx.TraceQueryEndData) {
	q, ok := ctx.Value(traceKey{}).(traced)
	if !ok {
		return
	}
	took := t.now().Sub(q.at)
	slow := t.slow > 0 && took >= t.slow

	ev := t.log.Info()
	switch {
	case d.Err != nil:
		ev = t.log.Error().Err(d.Err)
	case slow:
		ev = t.log.Warn()
	}
	ev.Dur("took", took).
		Bool("slow", slow).
		Str("sql", strings.Join(strings.Fields(q.sql), " ")).
		Int("args", q.nargs).
		Int64("rows", d.CommandTag.RowsAffected()).
		Msg("pg query")
}
