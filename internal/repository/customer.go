package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kushch-a/car-service-crm/internal/database"
	"github.com/kushch-a/car-service-crm/internal/model"
)

const customerColumns = `id, first_name, last_name, phone, email, address, created_at, updated_at`

// CustomerRepository handles customer data access
type CustomerRepository struct {
	db database.Querier
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db database.Querier) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Create creates a new customer
func (r *CustomerRepository) Create(ctx context.Context, in model.CustomerInput) (*model.Customer, error) {
	ts := now()
	c := &model.Customer{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		Email:     in.Email,
		Address:   in.Address,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO customers (first_name, last_name, phone, email, address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		c.FirstName, c.LastName, c.Phone, c.Email, nullable(c.Address), ts, ts,
	).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

// GetByID retrieves a customer by ID
func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*model.Customer, error) {
	return asNotFound(scanCustomer(r.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = ?`, id)))
}

// List returns customers ordered by ID
func (r *CustomerRepository) List(ctx context.Context, opts ListOptions) ([]*model.Customer, error) {
	opts = opts.normalize()
	rows, err := r.db.Query(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY id LIMIT ? OFFSET ?`, opts.Limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanCustomer)
}

// Update replaces the writable fields of a customer
func (r *CustomerRepository) Update(ctx context.Context, id int64, in model.CustomerInput) error {
	return requireAffected(r.db.Exec(ctx, `
		UPDATE customers
		SET first_name = ?, last_name = ?, phone = ?, email = ?, address = ?, updated_at = ?
		WHERE id = ?`,
		in.FirstName, in.LastName, in.Phone, in.Email, nullable(in.Address), now(), id,
	))
}

// Delete deletes a customer
func (r *CustomerRepository) Delete(ctx context.Context, id int64) error {
	return requireAffected(r.db.Exec(ctx, `DELETE FROM customers WHERE id = ?`, id))
}

func scanCustomer(s scanner) (*model.Customer, error) {
	var (
		c       model.Customer
		address sql.Null[string]
	)
	if err := s.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Phone, &c.Email, &address, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Address = ptrOf(address)
	return &c, nil
}
