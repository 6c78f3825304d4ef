// Package catalog implements the script catalog service: a curated library
// of PowerShell and Bash operational scripts with tags, highlights and
// per-script version history, exposed over HTTP and MCP.
package catalog

import (
	"database/sql"

	"github.com/scriptshelf/scriptshelf/audit"
	"github.com/scriptshelf/scriptshelf/catalog/internal/store"
	"github.com/scriptshelf/scriptshelf/dbopen"
)

// Schema is the catalog DDL, re-exported for callers that open the
// database themselves.
const Schema = store.Schema

// Service bundles the catalog store with the activity logger.
type Service struct {
	store *store.Store
	audit *audit.Logger
}

// NewService wires a catalog store to an activity logger. Mutating store
// operations report to the logger from then on.
func NewService(st *store.Store, aud *audit.Logger) *Service {
	st.Audit = aud
	return &Service{store: st, audit: aud}
}

// NewServiceDB wraps an already-opened catalog database. The caller is
// responsible for having applied Schema.
func NewServiceDB(db *sql.DB, aud *audit.Logger) *Service {
	return NewService(store.NewStore(db), aud)
}

// Open opens the catalog database at path and returns a ready service.
func Open(path string, aud *audit.Logger, opts ...dbopen.Option) (*Service, error) {
	st, err := store.Open(path, opts...)
	if err != nil {
		return nil, err
	}
	return NewService(st, aud), nil
}

// Store exposes the underlying store, mainly for seeding and tests.
func (s *Service) Store() *store.Store { return s.store }

// Close closes the catalog database.
func (s *Service) Close() error { return s.store.Close() }
