package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/BradenHooton/taskvault/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapPostgresError(t *testing.T) {
	other := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", pgx.ErrNoRows, models.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("query: %w", pgx.ErrNoRows), models.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, models.ErrConflict},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, models.ErrBadRequest},
		{"not null violation", &pgconn.PgError{Code: "23502"}, models.ErrBadRequest},
		{"check violation", &pgconn.PgError{Code: "23514"}, models.ErrBadRequest},
		{"unmapped pg error passes through", &pgconn.PgError{Code: "40001"}, nil},
		{"other error passes through", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapPostgresError(tt.err)
			if tt.name == "unmapped pg error passes through" {
				assert.Same(t, tt.err, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
