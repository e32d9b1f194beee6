package errors

import (
	stderrs "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the planner maps
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
	pgInvalidText         = "22P02"
	pgReadOnly            = "25006"
	pgCannotConnectNow    = "57P03"
)

// constraint name -> request field it guards
var constraintFields = map[string]string{
	"assignments_slot_key":           "shiftNumber",
	"assignments_driver_id_fkey":     "driverId",
	"assignments_duty_id_fkey":       "dutyId",
	"assignments_shift_number_check": "shiftNumber",
}

// PgError returns the *pgconn.PgError at the root of err
func PgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(Root(err), &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsDuplicateKey reports whether err is a unique violation
func IsDuplicateKey(err error) bool {
	pgErr, ok := PgError(err)
	return ok && pgErr.Code == pgUniqueViolation
}

// DBErrorCode maps a Postgres error to an ErrorCode
// !ok means err carried no PgError
func DBErrorCode(err error) (ErrorCode, bool) {
	pgErr, ok := PgError(err)
	if !ok {
		return ErrorCodeUnknown, false
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return ErrorCodeDuplicateKey, true
	case pgForeignKeyViolation, pgInvalidText:
		return ErrorCodeInvalidArgument, true
	case pgNotNullViolation, pgCheckViolation:
		return ErrorCodeValidation, true
	case pgReadOnly, pgCannotConnectNow:
		return ErrorCodeUnavailable, true
	}
	return ErrorCodeDB, true
}

// FromPostgres wraps err with its mapped code, nil stays nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	code, ok := DBErrorCode(err)
	if !ok {
		code = ErrorCodeDB
	}
	return Wrap(err, code, msg)
}

// FromPostgresWithField is FromPostgres plus the request field the violated constraint guards
// unknown constraints fall back to the column name
func FromPostgresWithField(err error, msg string) error {
	out := FromPostgres(err, msg)
	pgErr, ok := PgError(err)
	if !ok {
		return out
	}
	if f, ok := constraintFields[pgErr.ConstraintName]; ok {
		return WithField(out, f)
	}
	if col := strings.TrimSpace(pgErr.ColumnName); col != "" {
		return WithField(out, col)
	}
	return out
}
