package database

import (
	"context"
	"errors"

	"github.com/BradenHooton/taskvault/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// integrityErrors maps Postgres integrity violation codes to domain errors
var integrityErrors = map[string]error{
	"23505": models.ErrConflict,   // unique_violation
	"23503": models.ErrBadRequest, // foreign_key_violation
	"23502": models.ErrBadRequest, // not_null_violation
	"23514": models.ErrBadRequest, // check_violation
}

// MapPostgresError translates driver errors into model sentinels. Anything
// unrecognised is returned unchanged.
func MapPostgresError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if mapped, ok := integrityErrors[pgErr.Code]; ok {
			return mapped
		}
	}
	return err
}

// WithTransaction runs fn in a transaction that commits only when fn returns nil
func (db *DB) WithTransaction(ctx context.Context, fn func(pgx.Tx) error) error {
	return pgx.BeginFunc(ctx, db.Pool, fn)
}
