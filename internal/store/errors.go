package store

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel conditions surfaced by the document store. Callers branch on these;
// everything else is a generic backend failure.
var (
	// ErrNotFound indicates the requested document does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrPermissionDenied indicates backend authorization rules rejected the
	// operation.
	ErrPermissionDenied = errors.New("store: permission denied")

	// ErrIndexRequired indicates an ordered query needs a secondary index the
	// backend does not have.
	ErrIndexRequired = errors.New("store: index required")
)

// SQLSTATE classes mapped onto the store error taxonomy.
const (
	codeInsufficientPrivilege = "42501"
	codeUndefinedTable        = "42P01"
	codeUndefinedObject       = "42704"
)

// classify maps driver errors onto the store taxonomy. Unrecognized errors
// pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeInsufficientPrivilege:
			return ErrPermissionDenied
		case codeUndefinedTable, codeUndefinedObject:
			return ErrIndexRequired
		}
	}
	return err
}
