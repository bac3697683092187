// Package store: data access layer over the places table. Works against SQLite (default, file-backed)
// and PostgreSQL; each call borrows a pooled connection or transaction and releases it before returning.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"places-api/internal/logger"
)

// Dialect selects placeholder syntax; the SQL text is otherwise shared.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Place: one point of interest. ID is assigned by the store and ignored on input.
type Place struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Address  string `json:"address"`
}

// ErrNotFound is returned by point lookups that match no row.
var ErrNotFound = errors.New("place not found")

// PersistenceError wraps any failure of the underlying database.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }

func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	logger.L().Error("store_error", "op", op, "err", err)
	return &PersistenceError{Op: op, Err: err}
}

// Store: entry point for place queries; holds the pool, never a single connection.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// AttachDB wraps an already opened pool. Unknown dialects fall back to SQLite placeholders.
func AttachDB(db *sql.DB, dialect Dialect) *Store {
	if dialect != DialectPostgres {
		dialect = DialectSQLite
	}
	return &Store{db: db, dialect: dialect}
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Dialect() Dialect { return s.dialect }

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}
