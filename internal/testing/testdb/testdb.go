package testdb

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kushch-a/car-service-crm/internal/database"
	"github.com/kushch-a/car-service-crm/internal/model"
)

// TestDB provides an isolated database environment for testing
type TestDB struct {
	DB *database.SQLDB
	t  *testing.T
}

var counter atomic.Int64

// New opens and migrates a fresh in-memory database
func New(t *testing.T) *TestDB {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Open(ctx, database.Config{Driver: database.DriverSQLite, URL: ":memory:"})
	if err != nil {
		t.Fatalf("testdb: open failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("testdb: migrate failed: %v", err)
	}

	return &TestDB{DB: db, t: t}
}

// Context returns a context with a 30 second timeout
func (tdb *TestDB) Context() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	tdb.t.Cleanup(cancel)
	return ctx
}

// Count returns the number of rows in table
func (tdb *TestDB) Count(table string) int {
	tdb.t.Helper()
	var n int
	if err := tdb.DB.QueryRow(tdb.Context(), "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		tdb.t.Fatalf("testdb: count %s: %v", table, err)
	}
	return n
}

func (tdb *TestDB) insert(query string, args ...any) int64 {
	tdb.t.Helper()
	var id int64
	if err := tdb.DB.QueryRow(tdb.Context(), query+" RETURNING id", args...).Scan(&id); err != nil {
		tdb.t.Fatalf("testdb: insert failed: %v", err)
	}
	return id
}

// ============================================================================
// Seed Helpers
// ============================================================================

// CreateUser inserts an active user with the given role.
// The stored hash is not a valid bcrypt hash; use the auth service to
// create users that need to log in.
func (tdb *TestDB) CreateUser(role model.UserRole) *model.User {
	tdb.t.Helper()
	n := counter.Add(1)
	now := time.Now().UTC()
	u := &model.User{
		Username:  fmt.Sprintf("%s%d", role, n),
		Email:     fmt.Sprintf("%s%d@example.com", role, n),
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	u.ID = tdb.insert(
		`INSERT INTO users (username, email, hash, role, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, "x", string(u.Role), u.IsActive, now, now,
	)
	return u
}

// CreateCustomer inserts a customer
func (tdb *TestDB) CreateCustomer() *model.Customer {
	tdb.t.Helper()
	n := counter.Add(1)
	now := time.Now().UTC()
	c := &model.Customer{
		FirstName: "Ivan",
		LastName:  fmt.Sprintf("Petrenko%d", n),
		Phone:     fmt.Sprintf("+38050%07d", n),
		Email:     fmt.Sprintf("customer%d@example.com", n),
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.ID = tdb.insert(
		`INSERT INTO customers (first_name, last_name, phone, email, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.FirstName, c.LastName, c.Phone, c.Email, now, now,
	)
	return c
}

// CreateCar inserts a car owned by customerID
func (tdb *TestDB) CreateCar(customerID int64) *model.Car {
	tdb.t.Helper()
	n := counter.Add(1)
	now := time.Now().UTC()
	vin := fmt.Sprintf("VIN%014d", n)
	c := &model.Car{
		CustomerID: customerID,
		Brand:      "Skoda",
		Model:      "Octavia",
		Year:       2018,
		VIN:        &vin,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	c.ID = tdb.insert(
		`INSERT INTO cars (customer_id, brand, model, year, vin, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.CustomerID, c.Brand, c.Model, c.Year, vin, now, now,
	)
	return c
}

// CreateService inserts a catalog service
func (tdb *TestDB) CreateService(price float64) *model.Service {
	tdb.t.Helper()
	n := counter.Add(1)
	now := time.Now().UTC()
	s := &model.Service{
		Name:      fmt.Sprintf("Oil change %d", n),
		Price:     price,
		Duration:  30,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.ID = tdb.insert(
		`INSERT INTO services (name, price, duration, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		s.Name, s.Price, s.Duration, now, now,
	)
	return s
}

// CreateInvoice inserts an unpaid invoice for car, assigned to workerID
func (tdb *TestDB) CreateInvoice(car *model.Car, workerID, serviceID int64, total float64) *model.Invoice {
	tdb.t.Helper()
	now := time.Now().UTC()
	inv := &model.Invoice{
		CustomerID:    car.CustomerID,
		CarID:         car.ID,
		WorkerID:      workerID,
		ServiceID:     serviceID,
		TotalAmount:   total,
		PaymentStatus: model.PaymentUnpaid,
		WorkStatus:    model.WorkNew,
		IssueDate:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	inv.ID = tdb.insert(
		`INSERT INTO invoices (customer_id, car_id, worker_id, service_id, total_amount, payment_status, work_status, issue_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.CustomerID, inv.CarID, inv.WorkerID, inv.ServiceID, inv.TotalAmount,
		string(inv.PaymentStatus), string(inv.WorkStatus), now, now, now,
	)
	return inv
}

// CreateServiceRecord inserts a service record without an invoice
func (tdb *TestDB) CreateServiceRecord(carID, serviceID, performedBy int64) *model.ServiceRecord {
	tdb.t.Helper()
	now := time.Now().UTC()
	r := &model.ServiceRecord{
		CarID:       carID,
		ServiceID:   serviceID,
		PerformedBy: performedBy,
		Date:        now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.ID = tdb.insert(
		`INSERT INTO service_records (car_id, service_id, performed_by, date, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		carID, serviceID, performedBy, now, now, now,
	)
	return r
}
