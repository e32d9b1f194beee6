package errors

import (
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestDBErrorCode(t *testing.T) {
	t.Parallel()
	cases := map[string]ErrorCode{
		"23505": ErrorCodeDuplicateKey,
		"23503": ErrorCodeInvalidArgument,
		"22P02": ErrorCodeInvalidArgument,
		"23502": ErrorCodeValidation,
		"23514": ErrorCodeValidation,
		"57P03": ErrorCodeUnavailable,
		"40001": ErrorCodeDB,
	}
	for state, want := range cases {
		err := fmt.Errorf("exec: %w", &pgconn.PgError{Code: state})
		got, ok := DBErrorCode(err)
		if !ok || got != want {
			t.Fatalf("%s -> %d,%v want %d", state, got, ok, want)
		}
	}
	if _, ok := DBErrorCode(stderrs.New("plain")); ok {
		t.Fatalf("non pg error reported as pg")
	}
}

func TestFromPostgresWithField(t *testing.T) {
	t.Parallel()

	slot := &pgconn.PgError{Code: "23505", ConstraintName: "assignments_slot_key"}
	err := FromPostgresWithField(slot, "assignment insert failed")
	if !IsDuplicateKey(err) || !IsCode(err, ErrorCodeDuplicateKey) {
		t.Fatalf("slot violation not mapped: %v", err)
	}
	if w := WireFrom(err); w.Field != "shiftNumber" {
		t.Fatalf("field = %q", w.Field)
	}

	fk := &pgconn.PgError{Code: "23503", ConstraintName: "assignments_driver_id_fkey"}
	if w := WireFrom(FromPostgresWithField(fk, "x")); w.Field != "driverId" || w.Code != ErrorCodeInvalidArgument {
		t.Fatalf("fk wire = %+v", w)
	}

	col := &pgconn.PgError{Code: "23502", ColumnName: "start_time"}
	if w := WireFrom(FromPostgresWithField(col, "x")); w.Field != "start_time" {
		t.Fatalf("column fallback = %+v", w)
	}

	plain := FromPostgresWithField(stderrs.New("eof"), "x")
	if !IsCode(plain, ErrorCodeDB) {
		t.Fatalf("plain = %v", plain)
	}
	if FromPostgresWithField(nil, "x") != nil {
		t.Fatalf("nil must stay nil")
	}
}
