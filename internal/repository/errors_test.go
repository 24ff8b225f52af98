package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	t.Parallel()

	other := errors.New("connection reset")
	serialization := &pgconn.PgError{Code: "40001"}
	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "nil", in: nil, want: nil},
		{name: "no rows", in: pgx.ErrNoRows, want: ErrNotFound},
		{name: "wrapped no rows", in: fmt.Errorf("fetch ticket: %w", pgx.ErrNoRows), want: ErrNotFound},
		{name: "unique violation", in: &pgconn.PgError{Code: "23505"}, want: ErrDuplicate},
		{name: "malformed uuid", in: &pgconn.PgError{Code: "22P02"}, want: ErrNotFound},
		{name: "foreign key violation", in: fmt.Errorf("insert comment: %w", &pgconn.PgError{Code: "23503"}), want: ErrNotFound},
		{name: "other pg error", in: serialization, want: serialization},
		{name: "other error", in: other, want: other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, translate(tt.in))
		})
	}
}
