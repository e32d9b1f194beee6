package repo

import (
	"context"
	"time"

	"transitplan/internal/core/schedule"
	"transitplan/internal/platform/store"
)

// AuditTable receives one row per processed day of a finished run
const AuditTable = "planning_day_results"

const auditDDL = `
create table if not exists ` + AuditTable + ` (
	run_id String,
	driver_id Int64,
	line_id LowCardinality(String),
	duty_name String,
	shift_number UInt8,
	service_date Date,
	status LowCardinality(String),
	detail String,
	finished_at DateTime64(3, 'UTC')
) engine = MergeTree
order by (service_date, driver_id, run_id)
`

// Audit writes run results to clickhouse
type Audit struct {
	ch  store.Clickhouse
	now func() time.Time
}

// NewAudit returns nil when ch is nil so callers can treat the audit as optional
func NewAudit(ch store.Clickhouse) *Audit {
	if ch == nil {
		return nil
	}
	return &Audit{ch: ch, now: time.Now}
}

// Migrate creates the audit table
func (a *Audit) Migrate(ctx context.Context) error {
	if a == nil {
		return nil
	}
	return a.ch.Exec(ctx, auditDDL)
}

// Record batch inserts every result of a finished run
func (a *Audit) Record(ctx context.Context, plan schedule.Plan, sum schedule.Summary) error {
	if a == nil || len(sum.Results) == 0 {
		return nil
	}
	type slot struct {
		duty  string
		shift int
	}
	byDate := make(map[string]slot, len(plan.Days))
	for _, d := range plan.Days {
		byDate[d.Key()] = slot{d.Duty, d.Shift}
	}

	finished := a.now().UTC()
	rows := make([][]any, 0, len(sum.Results))
	for _, res := range sum.Results {
		date, err := time.Parse("2006-01-02", res.Date)
		if err != nil {
			return err
		}
		sl := byDate[res.Date]
		detail := res.Error
		if res.Status == schedule.StatusSuccess {
			detail = ""
		}
		rows = append(rows, []any{
			plan.RunID,
			plan.DriverID,
			plan.LineID,
			sl.duty,
			uint8(sl.shift),
			date,
			string(res.Status),
			detail,
			finished,
		})
	}
	return a.ch.Insert(ctx, AuditTable, rows)
}
