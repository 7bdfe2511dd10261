package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Column types that differ between the two dialects
var dialectTypes = map[string]*strings.Replacer{
	DriverSQLite: strings.NewReplacer(
		"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ts}}", "TIMESTAMP",
		"{{money}}", "REAL",
	),
	DriverPostgres: strings.NewReplacer(
		"{{pk}}", "BIGSERIAL PRIMARY KEY",
		"{{ts}}", "TIMESTAMPTZ",
		"{{money}}", "DOUBLE PRECISION",
	),
}

var schema = []struct {
	name string
	stmt string
}{
	{"users", `CREATE TABLE IF NOT EXISTS users (
		id {{pk}},
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL,
		hash TEXT NOT NULL,
		role TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`},
	{"customers", `CREATE TABLE IF NOT EXISTS customers (
		id {{pk}},
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		phone TEXT NOT NULL,
		email TEXT NOT NULL,
		address TEXT,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`},
	{"cars", `CREATE TABLE IF NOT EXISTS cars (
		id {{pk}},
		customer_id BIGINT NOT NULL REFERENCES customers(id),
		brand TEXT NOT NULL,
		model TEXT NOT NULL,
		year INTEGER NOT NULL,
		vin TEXT UNIQUE,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`},
	{"services", `CREATE TABLE IF NOT EXISTS services (
		id {{pk}},
		name TEXT NOT NULL,
		description TEXT,
		price {{money}} NOT NULL,
		duration INTEGER NOT NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`},
	{"invoices", `CREATE TABLE IF NOT EXISTS invoices (
		id {{pk}},
		customer_id BIGINT NOT NULL REFERENCES customers(id),
		car_id BIGINT NOT NULL REFERENCES cars(id),
		worker_id BIGINT NOT NULL REFERENCES users(id),
		service_id BIGINT NOT NULL REFERENCES services(id),
		total_amount {{money}} NOT NULL,
		payment_status TEXT NOT NULL,
		work_status TEXT NOT NULL,
		issue_date {{ts}} NOT NULL,
		due_date {{ts}},
		created_by BIGINT REFERENCES users(id),
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`},
	{"invoices_worker_idx", `CREATE INDEX IF NOT EXISTS idx_invoices_worker ON invoices(worker_id)`},
	{"invoice_items", `CREATE TABLE IF NOT EXISTS invoice_items (
		id {{pk}},
		invoice_id BIGINT NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
		service_id BIGINT NOT NULL REFERENCES services(id),
		quantity INTEGER NOT NULL,
		unit_price {{money}} NOT NULL,
		total {{money}} NOT NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`},
	{"invoice_items_invoice_idx", `CREATE INDEX IF NOT EXISTS idx_invoice_items_invoice ON invoice_items(invoice_id)`},
	{"service_records", `CREATE TABLE IF NOT EXISTS service_records (
		id {{pk}},
		car_id BIGINT NOT NULL REFERENCES cars(id),
		service_id BIGINT NOT NULL REFERENCES services(id),
		performed_by BIGINT NOT NULL REFERENCES users(id),
		date {{ts}} NOT NULL,
		mileage INTEGER,
		notes TEXT,
		invoice_id BIGINT REFERENCES invoices(id) ON DELETE SET NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`},
}

// Migrate creates any missing tables. It is safe to run on every start.
func (s *SQLDB) Migrate(ctx context.Context) error {
	r, ok := dialectTypes[s.driver]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDriver, s.driver)
	}
	for _, m := range schema {
		slog.Debug("migration", "step", m.name, "driver", s.driver)
		if _, err := s.db.ExecContext(ctx, r.Replace(m.stmt)); err != nil {
			return fmt.Errorf("migrate %s: %w", m.name, err)
		}
	}
	return nil
}
