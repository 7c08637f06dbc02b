package errors

import (
	"context"
	stderrs "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
	pgRightTruncation     = "22001"
	pgInvalidText         = "22P02"
	pgSerialization       = "40001"
	pgDeadlock            = "40P01"
	pgLockNotAvailable    = "55P03"
	pgReadOnly            = "25006"
	pgCannotConnectNow    = "57P03"
)

var codeBySQLState = map[string]ErrorCode{
	pgUniqueViolation:     ErrorCodeDuplicateKey,
	pgForeignKeyViolation: ErrorCodeInvalidArgument,
	pgNotNullViolation:    ErrorCodeValidation,
	pgCheckViolation:      ErrorCodeValidation,
	pgRightTruncation:     ErrorCodeInvalidArgument,
	pgInvalidText:         ErrorCodeInvalidArgument,
	pgReadOnly:            ErrorCodeUnavailable,
	pgCannotConnectNow:    ErrorCodeUnavailable,
}

func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsDuplicateKey reports a unique constraint violation
func IsDuplicateKey(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == pgUniqueViolation
}

// FromPostgres wraps a driver error with a code derived from its SQLSTATE.
// Constraint failures on a known column are bound to that field. nil stays nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	pgErr, ok := pgError(err)
	if !ok {
		return Wrap(err, ErrorCodeDB, msg)
	}
	code, known := codeBySQLState[pgErr.Code]
	if !known {
		code = ErrorCodeDB
	}
	out := Wrap(err, code, msg)
	if col := strings.TrimSpace(pgErr.ColumnName); col != "" && code == ErrorCodeValidation {
		out = WithField(out, col)
	}
	return out
}

// IsRetryable reports a transient database failure worth running the
// transaction again for. Context cancellation never is
func IsRetryable(err error) bool {
	if err == nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	root := Root(err)

	if pgErr, ok := pgError(root); ok {
		switch pgErr.Code {
		case pgSerialization, pgDeadlock, pgLockNotAvailable, pgCannotConnectNow:
			return true
		}
		return false
	}

	// nothing reached the server
	if pgconn.SafeToRetry(root) {
		return true
	}

	s := strings.ToLower(root.Error())
	for _, frag := range []string{
		"commit unexpectedly resulted in rollback",
		"could not serialize access",
		"canceling statement due to lock timeout",
		"terminating connection due to administrator command",
	} {
		if strings.Contains(s, frag) {
			return true
		}
	}
	return false
}
