// Package database provides the database abstraction layer for the CRM.
//
// This package defines the Database interface over database/sql so that
// repositories never depend on a concrete driver. Two drivers are supported:
// PostgreSQL through pgx, and an embedded SQLite for local runs and tests.
//
// # Query Placeholders
//
// Queries are written once with "?" placeholders. The PostgreSQL backend
// rebinds them to $1, $2, ... before execution.
//
// # Error Handling
//
// Standard errors are defined for common failure cases:
//   - ErrNotFound: Record does not exist
//   - ErrDuplicate: Unique constraint violation
//   - ErrReferenced: Foreign key violation
//   - ErrConnection: Database connection issues
//
// Use errors.Is() to check error types:
//
//	if errors.Is(err, database.ErrNotFound) {
//	    // Handle missing record
//	}
package database

import (
	"context"
	"database/sql"
	"errors"
)

// Standard errors for database operations.
// Use errors.Is() to check these error types in calling code.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a unique constraint violation (e.g., duplicate VIN).
	ErrDuplicate = errors.New("duplicate record")

	// ErrReferenced indicates a foreign key violation: the row points at a
	// missing parent, or other rows still point at it.
	ErrReferenced = errors.New("referenced record constraint")

	// ErrConnection indicates a failure to connect to or communicate with the database.
	ErrConnection = errors.New("database connection error")

	// ErrUnknownDriver is returned by Open for an unsupported driver name.
	ErrUnknownDriver = errors.New("unknown database driver")
)

// Supported driver names
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

// Querier is the set of statements shared by a database and a transaction
type Querier interface {
	// Query executes a query that returns rows
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)

	// QueryRow executes a query expected to return at most one row
	QueryRow(ctx context.Context, query string, args ...any) *Row

	// Exec runs a statement without returning rows (for mutations)
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Database defines the interface for database operations
type Database interface {
	Querier

	// Connection management
	Close() error
	Ping(ctx context.Context) error

	// Transaction support
	BeginTx(ctx context.Context) (Transaction, error)
}

// Transaction represents a database transaction
type Transaction interface {
	Querier
	Commit() error
	Rollback() error
}

// Config holds database configuration
type Config struct {
	Driver       string
	URL          string
	MaxOpenConns int
}
