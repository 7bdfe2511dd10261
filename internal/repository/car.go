package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kushch-a/car-service-crm/internal/database"
	"github.com/kushch-a/car-service-crm/internal/model"
)

const carColumns = `id, customer_id, brand, model, year, vin, created_at, updated_at`

// CarRepository handles car data access
type CarRepository struct {
	db database.Querier
}

// NewCarRepository creates a new car repository
func NewCarRepository(db database.Querier) *CarRepository {
	return &CarRepository{db: db}
}

// Create creates a new car
func (r *CarRepository) Create(ctx context.Context, in model.CarInput) (*model.Car, error) {
	ts := now()
	c := &model.Car{
		CustomerID: in.CustomerID,
		Brand:      in.Brand,
		Model:      in.Model,
		Year:       in.Year,
		VIN:        in.VIN,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO cars (customer_id, brand, model, year, vin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		c.CustomerID, c.Brand, c.Model, c.Year, nullable(c.VIN), ts, ts,
	).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("create car: %w", err)
	}
	return c, nil
}

// GetByID retrieves a car by ID
func (r *CarRepository) GetByID(ctx context.Context, id int64) (*model.Car, error) {
	return asNotFound(scanCar(r.db.QueryRow(ctx, `SELECT `+carColumns+` FROM cars WHERE id = ?`, id)))
}

// GetByVIN retrieves a car by VIN
func (r *CarRepository) GetByVIN(ctx context.Context, vin string) (*model.Car, error) {
	return asNotFound(scanCar(r.db.QueryRow(ctx, `SELECT `+carColumns+` FROM cars WHERE vin = ?`, vin)))
}

// List returns cars ordered by ID
func (r *CarRepository) List(ctx context.Context, opts ListOptions) ([]*model.Car, error) {
	opts = opts.normalize()
	rows, err := r.db.Query(ctx, `SELECT `+carColumns+` FROM cars ORDER BY id LIMIT ? OFFSET ?`, opts.Limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanCar)
}

// Update replaces the writable fields of a car
func (r *CarRepository) Update(ctx context.Context, id int64, in model.CarInput) error {
	return requireAffected(r.db.Exec(ctx, `
		UPDATE cars
		SET customer_id = ?, brand = ?, model = ?, year = ?, vin = ?, updated_at = ?
		WHERE id = ?`,
		in.CustomerID, in.Brand, in.Model, in.Year, nullable(in.VIN), now(), id,
	))
}

// Delete deletes a car
func (r *CarRepository) Delete(ctx context.Context, id int64) error {
	return requireAffected(r.db.Exec(ctx, `DELETE FROM cars WHERE id = ?`, id))
}

func scanCar(s scanner) (*model.Car, error) {
	var (
		c   model.Car
		vin sql.Null[string]
	)
	if err := s.Scan(&c.ID, &c.CustomerID, &c.Brand, &c.Model, &c.Year, &vin, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.VIN = ptrOf(vin)
	return &c, nil
}
