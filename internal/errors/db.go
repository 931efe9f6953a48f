package errors

import (
	"context"
	"database/sql"
	"errors"
	"regexp"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// reConstraint extracts the field list from a unique violation detail:
// "Key (field)=(value) already exists.".
var reConstraint = regexp.MustCompile(`Key \(([^)]+)\)=`)

// MapDBError maps database errors to AppError instances:
//   - pgx.ErrNoRows → NotFound
//   - unique constraint violations → Conflict
//   - foreign key violations → ForeignKey (retryable, see ErrCodeForeignKey)
//   - check / not-null violations → Validation
//   - connection failures → Unavailable
//   - context deadline / cancellation → Timeout / Canceled
//
// Unrecognized errors are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{Code: ErrCodeTimeout, Message: "database operation timed out", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{Code: ErrCodeCanceled, Message: "database operation canceled", Cause: err}
	}
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return &AppError{Code: ErrCodeNotFound, Message: "resource not found", Cause: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return &AppError{Code: ErrCodeUnavailable, Message: "database unavailable", Cause: err}
	}

	return err
}

func mapPgError(pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		msg := "duplicate key"
		if m := reConstraint.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
			msg = "duplicate " + m[1]
		}
		return &AppError{Code: ErrCodeConflict, Message: msg, Cause: pgErr}
	case pgerrcode.ForeignKeyViolation:
		return &AppError{Code: ErrCodeForeignKey, Message: "referenced row does not exist", Cause: pgErr}
	case pgerrcode.CheckViolation, pgerrcode.NotNullViolation:
		return &AppError{Code: ErrCodeValidation, Message: "constraint violation", Cause: pgErr}
	case pgerrcode.ConnectionException, pgerrcode.ConnectionFailure,
		pgerrcode.ConnectionDoesNotExist, pgerrcode.TooManyConnections:
		return &AppError{Code: ErrCodeUnavailable, Message: "database unavailable", Cause: pgErr}
	default:
		return &AppError{Code: ErrCodeInternal, Message: "database error", Cause: pgErr}
	}
}
