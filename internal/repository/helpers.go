package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kushch-a/car-service-crm/internal/database"
)

// Default and maximum page sizes for list queries
const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// ListOptions controls pagination of list queries
type ListOptions struct {
	Offset int
	Limit  int
}

// normalize clamps the options to sane bounds
func (o ListOptions) normalize() ListOptions {
	if o.Offset < 0 {
		o.Offset = 0
	}
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	return o
}

// scanner is satisfied by *sql.Rows and *database.Row
type scanner interface {
	Scan(dest ...any) error
}

// now returns the current time at the precision both drivers preserve
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// nullable converts an optional value into a query argument
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// ptrOf converts a scanned nullable column back into an optional value
func ptrOf[T any](n sql.Null[T]) *T {
	if !n.Valid {
		return nil
	}
	v := n.V
	return &v
}

// asNotFound turns database.ErrNotFound into (nil, nil) for GetByXxx lookups
func asNotFound[T any](v *T, err error) (*T, error) {
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// requireAffected reports database.ErrNotFound when a mutation matched nothing
func requireAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return database.ErrNotFound
	}
	return nil
}

// updateSet accumulates "col = ?" clauses for partial updates
type updateSet struct {
	cols []string
	args []any
}

func (u *updateSet) set(col string, v any) {
	u.cols = append(u.cols, col+" = ?")
	u.args = append(u.args, v)
}

func (u *updateSet) empty() bool {
	return len(u.cols) == 0
}

// build renders the UPDATE statement; updated_at is always refreshed
func (u *updateSet) build(table string, id int64, ts time.Time) (string, []any) {
	cols := append(append([]string{}, u.cols...), "updated_at = ?")
	args := append(append([]any{}, u.args...), ts, id)
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(cols, ", ")), args
}

// collect scans every row with scan
func collect[T any](rows *sql.Rows, scan func(scanner) (*T, error)) ([]*T, error) {
	defer rows.Close()

	out := make([]*T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
