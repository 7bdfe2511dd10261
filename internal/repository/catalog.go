package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kushch-a/car-service-crm/internal/database"
	"github.com/kushch-a/car-service-crm/internal/model"
)

const serviceColumns = `id, name, description, price, duration, created_at, updated_at`

// CatalogRepository handles the services price list
type CatalogRepository struct {
	db database.Querier
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db database.Querier) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Create adds a service to the catalog
func (r *CatalogRepository) Create(ctx context.Context, in model.ServiceInput) (*model.Service, error) {
	ts := now()
	s := &model.Service{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Duration:    in.Duration,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO services (name, description, price, duration, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		s.Name, nullable(s.Description), s.Price, s.Duration, ts, ts,
	).Scan(&s.ID)
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}
	return s, nil
}

// GetByID retrieves a service by ID
func (r *CatalogRepository) GetByID(ctx context.Context, id int64) (*model.Service, error) {
	return asNotFound(scanService(r.db.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = ?`, id)))
}

// List returns services ordered by ID
func (r *CatalogRepository) List(ctx context.Context, opts ListOptions) ([]*model.Service, error) {
	opts = opts.normalize()
	rows, err := r.db.Query(ctx, `SELECT `+serviceColumns+` FROM services ORDER BY id LIMIT ? OFFSET ?`, opts.Limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanService)
}

// Update applies a partial update
func (r *CatalogRepository) Update(ctx context.Context, id int64, p model.ServicePatch) error {
	var set updateSet
	if p.Name != nil {
		set.set("name", *p.Name)
	}
	if p.Description != nil {
		set.set("description", *p.Description)
	}
	if p.Price != nil {
		set.set("price", *p.Price)
	}
	if p.Duration != nil {
		set.set("duration", *p.Duration)
	}

	query, args := set.build("services", id, now())
	return requireAffected(r.db.Exec(ctx, query, args...))
}

// Delete removes a service from the catalog
func (r *CatalogRepository) Delete(ctx context.Context, id int64) error {
	return requireAffected(r.db.Exec(ctx, `DELETE FROM services WHERE id = ?`, id))
}

func scanService(s scanner) (*model.Service, error) {
	var (
		svc  model.Service
		desc sql.Null[string]
	)
	if err := s.Scan(&svc.ID, &svc.Name, &desc, &svc.Price, &svc.Duration, &svc.CreatedAt, &svc.UpdatedAt); err != nil {
		return nil, err
	}
	svc.Description = ptrOf(desc)
	return &svc, nil
}
