package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLDB implements the Database interface on top of database/sql
type SQLDB struct {
	db     *sql.DB
	driver string
}

// Open connects to the configured database and verifies the connection
func Open(ctx context.Context, cfg Config) (*SQLDB, error) {
	switch cfg.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	if cfg.Driver == DriverSQLite {
		// An in-memory database lives and dies with its connection
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys=ON;`); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: %v", ErrConnection, err)
		}
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	s := &SQLDB{db: db, driver: cfg.Driver}
	if err := s.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Driver returns the driver name the database was opened with
func (s *SQLDB) Driver() string {
	return s.driver
}

// Close closes the database connection
func (s *SQLDB) Close() error {
	return s.db.Close()
}

// Ping checks the database connection
func (s *SQLDB) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Query executes a query and returns the rows
func (s *SQLDB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := s.db.QueryContext(ctx, rebind(s.driver, query), args...)
	if err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}

// QueryRow executes a query that returns at most one row
func (s *SQLDB) QueryRow(ctx context.Context, query string, args ...any) *Row {
	return &Row{row: s.db.QueryRowContext(ctx, rebind(s.driver, query), args...)}
}

// Exec runs a statement without returning rows
func (s *SQLDB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := s.db.ExecContext(ctx, rebind(s.driver, query), args...)
	if err != nil {
		return nil, mapError(err)
	}
	return res, nil
}

// BeginTx starts a transaction
func (s *SQLDB) BeginTx(ctx context.Context) (Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin transaction: %v", ErrConnection, err)
	}
	return &sqlTx{tx: tx, driver: s.driver}, nil
}

type sqlTx struct {
	tx     *sql.Tx
	driver string
}

func (t *sqlTx) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := t.tx.QueryContext(ctx, rebind(t.driver, query), args...)
	if err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}

func (t *sqlTx) QueryRow(ctx context.Context, query string, args ...any) *Row {
	return &Row{row: t.tx.QueryRowContext(ctx, rebind(t.driver, query), args...)}
}

func (t *sqlTx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := t.tx.ExecContext(ctx, rebind(t.driver, query), args...)
	if err != nil {
		return nil, mapError(err)
	}
	return res, nil
}

func (t *sqlTx) Commit() error {
	return mapError(t.tx.Commit())
}

func (t *sqlTx) Rollback() error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

// Row wraps sql.Row so scan failures surface as package errors
type Row struct {
	row *sql.Row
}

// Scan copies the row into dest. A missing row yields ErrNotFound.
func (r *Row) Scan(dest ...any) error {
	return mapError(r.row.Scan(dest...))
}

// mapError translates driver errors into the package sentinels
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return fmt.Errorf("%w: %s", ErrReferenced, pgErr.ConstraintName)
		}
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", ErrDuplicate, liteErr)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %v", ErrReferenced, liteErr)
		}
		if liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			msg := liteErr.Error()
			switch {
			case strings.Contains(msg, "UNIQUE"):
				return fmt.Errorf("%w: %v", ErrDuplicate, liteErr)
			case strings.Contains(msg, "FOREIGN KEY"):
				return fmt.Errorf("%w: %v", ErrReferenced, liteErr)
			}
		}
	}
	return err
}

// rebind rewrites "?" placeholders to "$n" for PostgreSQL.
// Question marks inside single-quoted literals are left alone.
func rebind(driver, query string) string {
	if driver != DriverPostgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
