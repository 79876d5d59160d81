package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", pgx.ErrNoRows, ErrNotFound},
		{"wrapped no rows", fmt.Errorf("query: %w", pgx.ErrNoRows), ErrNotFound},
		{"insufficient privilege", &pgconn.PgError{Code: "42501"}, ErrPermissionDenied},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, ErrIndexRequired},
		{"undefined object", &pgconn.PgError{Code: "42704"}, ErrIndexRequired},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := classify(tc.in)
			if tc.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tc.want)
		})
	}
}

func TestClassifyPassthrough(t *testing.T) {
	boom := errors.New("connection reset")
	assert.Equal(t, boom, classify(boom))

	pgErr := &pgconn.PgError{Code: "23505"}
	assert.Equal(t, error(pgErr), classify(pgErr))
}
