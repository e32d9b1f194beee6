package repo

import (
	"context"
	"fmt"

	"transitplan/internal/modkit/repokit"
)

// schema is applied in order; every statement is idempotent
var schema = []string{
	`create table if not exists lines (
	id text primary key,
	title text not null default '',
	active boolean not null default true
)`,
	`create table if not exists drivers (
	id bigint primary key,
	first_name text not null default '',
	last_name text not null default '',
	active boolean not null default true
)`,
	`create table if not exists duties (
	id bigserial primary key,
	line_id text not null references lines(id),
	name text not null,
	unique (line_id, name)
)`,
	`create table if not exists duty_shifts (
	duty_id bigint not null references duties(id) on delete cascade,
	shift_number smallint not null check (shift_number between 1 and 3),
	weekday smallint not null check (weekday between 0 and 6),
	start_time text not null,
	end_time text not null,
	departure_count integer not null default 0,
	primary key (duty_id, shift_number, weekday)
)`,
	`create table if not exists assignments (
	id bigserial primary key,
	service_date date not null,
	line_id text not null,
	duty_id bigint not null references duties(id),
	duty_name text not null,
	shift_number smallint not null check (shift_number between 1 and 3),
	driver_id bigint not null references drivers(id),
	departure_count integer not null default 0,
	start_time text not null,
	end_time text not null,
	created_by bigint not null default 0,
	created_at timestamptz not null default now(),
	constraint assignments_slot_key unique (service_date, line_id, duty_name, shift_number)
)`,
	`create index if not exists assignments_driver_date_idx on assignments (driver_id, service_date)`,
	`create table if not exists duty_defaults (
	id bigserial primary key,
	driver_id bigint not null references drivers(id),
	duty_name text not null,
	shift_number smallint,
	weekday smallint,
	priority integer not null default 100,
	usage_count integer not null default 0,
	usage_percentage double precision not null default 0,
	confidence_score double precision not null default 0,
	note text not null default '',
	active boolean not null default true
)`,
	`create index if not exists duty_defaults_duty_idx on duty_defaults (duty_name) where active`,
}

// Migrate applies the planning schema
func Migrate(ctx context.Context, q repokit.Queryer) error {
	for i, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("planning schema step %d: %w", i, err)
		}
	}
	return nil
}
