package errors

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// reKeyField extracts the column list from "Key (field)=(value) already exists.".
var reKeyField = regexp.MustCompile(`Key \(([^)]+)\)=`)

// uniqueMessages holds caller-facing messages per conflicting column.
var uniqueMessages = map[string]string{
	"slug":  "This name already exists",
	"value": "This identifier is already registered",
	"email": "email already exists",
}

// MapDBError maps database errors to AppError instances:
// pgx.ErrNoRows becomes NotFound, unique violations become DuplicateResource,
// foreign key, check and NOT NULL violations become Validation and
// context errors become Timeout/Canceled. Unknown errors are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{Code: ErrCodeTimeout, Message: "request timed out", Cause: err}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{Code: ErrCodeCanceled, Message: "request was canceled", Cause: err}
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &AppError{Code: ErrCodeNotFound, Message: "resource not found", Cause: err}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return mapPgError(pgErr)
	}
	return err
}

// IsSerializationFailure reports whether err is a retryable serializable-isolation conflict.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
}

func mapPgError(pgErr *pgconn.PgError) error {
	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		field := uniqueField(pgErr)
		msg, ok := uniqueMessages[field]
		if !ok {
			msg = "This value already exists"
		}
		return &AppError{Code: ErrCodeDuplicate, Message: msg, Field: field, Cause: pgErr}
	case pgerrcode.ForeignKeyViolation:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "referenced " + tableLabel(pgErr.TableName) + " does not exist",
			Cause:   pgErr,
		}
	case pgerrcode.CheckViolation, pgerrcode.NotNullViolation, pgerrcode.InvalidTextRepresentation:
		return &AppError{
			Code:    ErrCodeValidation,
			Message: "invalid data",
			Field:   pgErr.ColumnName,
			Cause:   pgErr,
		}
	default:
		return &AppError{Code: ErrCodeInternal, Message: "database error", Cause: pgErr}
	}
}

// uniqueField prefers ColumnName, then the Detail message, then the constraint name.
func uniqueField(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if m := reKeyField.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		cols := strings.Split(m[1], ",")
		return strings.TrimSpace(cols[len(cols)-1])
	}
	return inferFieldFromConstraint(pgErr.ConstraintName)
}

// inferFieldFromConstraint handles names like "idx_workspaces_slug" or "workspaces_slug_key".
func inferFieldFromConstraint(name string) string {
	name = strings.TrimPrefix(name, "idx_")
	name = strings.TrimSuffix(strings.TrimSuffix(name, "_key"), "_pkey")
	parts := strings.Split(name, "_")
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

func tableLabel(table string) string {
	switch strings.ToLower(strings.TrimSpace(table)) {
	case "accounts":
		return "account"
	case "workspaces":
		return "workspace"
	case "memberships":
		return "membership"
	case "identifiers":
		return "identifier"
	case "":
		return "record"
	default:
		return strings.ReplaceAll(table, "_", " ")
	}
}
