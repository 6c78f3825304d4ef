// Package store provides the SQLite persistence layer for the script
// catalog. It is the sole reader/writer of the catalog tables and owns the
// join logic that assembles a script together with its tags, highlights and
// version history.
package store

import (
	"context"
	"database/sql"

	"github.com/scriptshelf/scriptshelf/dbopen"
)

// AuditHook receives a fire-and-forget activity record for every mutating
// operation. Implementations must never block and never return an error to
// the caller — audit.Logger satisfies this.
type AuditHook interface {
	Log(ctx context.Context, action, details string)
}

// Store is the catalog database handle.
type Store struct {
	DB *sql.DB

	// Audit, when non-nil, records mutating operations. Failures inside
	// the hook never reach the primary operation.
	Audit AuditHook
}

// Open opens (or creates) the catalog SQLite database at path, applies the
// scriptshelf pragmas and the catalog schema.
func Open(path string, opts ...dbopen.Option) (*Store, error) {
	allOpts := append([]dbopen.Option{
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(Schema),
	}, opts...)

	db, err := dbopen.Open(path, allOpts...)
	if err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// NewStore creates a Store from an already-opened database connection.
// The caller is responsible for having applied the schema.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

func (s *Store) audit(ctx context.Context, action, details string) {
	if s.Audit != nil {
		s.Audit.Log(ctx, action, details)
	}
}
