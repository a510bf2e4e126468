package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/target/multiauth/internal/data/pgxutil"
	errs "github.com/target/multiauth/internal/errors"
)

// Shared sentinel errors for data-layer repositories.
var (
	ErrAccountIDRequired   = errors.New("account id is required")
	ErrWorkspaceIDRequired = errors.New("workspace id is required")
	ErrInvalidIdentifier   = errors.New("identifier type is not supported")
)

// dbErr maps err to an AppError and prefixes the operation.
func dbErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, errs.MapDBError(err))
}

// inTx runs fn on tx, or on a fresh serializable transaction when tx is nil.
func inTx(ctx context.Context, db *sql.DB, tx pgx.Tx, fn func(pgx.Tx) error) error {
	if tx != nil {
		return fn(tx)
	}
	return pgxutil.WithPgxTx(ctx, db, pgxutil.TxConfig{
		Opts: &sql.TxOptions{Isolation: sql.LevelSerializable},
		Fn:   fn,
	})
}
