package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/healthhub/portal/internal/platform/apperr"
)

// Postgres SQLSTATE codes the repositories care about.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
	codeInvalidTextRepr     = "22P02"
	codeNumericOutOfRange   = "22003"
	codeInvalidDatetime     = "22007"
	codeDatetimeOverflow    = "22008"
)

// Classify translates a driver error into the portal error taxonomy.
// what names the failed operation, e.g. "insert appointment".
func Classify(err error, what string) error {
	if err == nil {
		return nil
	}
	if apperr.KindOf(err) != apperr.KindUnknown {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("%s: not found", what)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperr.Transient(err, "%s", what)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return apperr.Wrap(apperr.KindConflict, err, "%s: already exists", what)
		case codeForeignKeyViolation:
			return apperr.Wrap(apperr.KindValidation, err, "%s: referenced record does not exist", what)
		case codeCheckViolation, codeNotNullViolation, codeInvalidTextRepr, codeNumericOutOfRange, codeInvalidDatetime, codeDatetimeOverflow:
			return apperr.Wrap(apperr.KindValidation, err, "%s: invalid value", what)
		}
	}
	return apperr.Transient(err, "%s", what)
}

// ConstraintName returns the violated constraint, if err is a Postgres error.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
