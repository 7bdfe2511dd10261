package service

import (
	"context"
	"errors"
	"strings"

	"github.com/kushch-a/car-service-crm/internal/database"
	"github.com/kushch-a/car-service-crm/internal/model"
	"github.com/kushch-a/car-service-crm/internal/repository"
)

// CatalogRepository defines the interface for the services price list
type CatalogRepository interface {
	Create(ctx context.Context, in model.ServiceInput) (*model.Service, error)
	GetByID(ctx context.Context, id int64) (*model.Service, error)
	List(ctx context.Context, opts repository.ListOptions) ([]*model.Service, error)
	Update(ctx context.Context, id int64, p model.ServicePatch) error
	Delete(ctx context.Context, id int64) error
}

// CatalogService manages the price list of workshop services
type CatalogService struct {
	catalogRepo CatalogRepository
}

// CatalogServiceConfig holds configuration for the catalog service
type CatalogServiceConfig struct {
	CatalogRepo CatalogRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(cfg CatalogServiceConfig) *CatalogService {
	return &CatalogService{catalogRepo: cfg.CatalogRepo}
}

// Create adds a service to the price list
func (s *CatalogService) Create(ctx context.Context, in model.ServiceInput) (*model.Service, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateService(in.Name, in.Price, in.Duration); err != nil {
		return nil, err
	}
	return s.catalogRepo.Create(ctx, in)
}

// Get retrieves a service by ID
func (s *CatalogService) Get(ctx context.Context, id int64) (*model.Service, error) {
	svc, err := s.catalogRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, ErrServiceNotFound
	}
	return svc, nil
}

// List returns the price list
func (s *CatalogService) List(ctx context.Context, opts repository.ListOptions) ([]*model.Service, error) {
	return s.catalogRepo.List(ctx, opts)
}

// Replace overwrites every writable field
func (s *CatalogService) Replace(ctx context.Context, id int64, in model.ServiceInput) (*model.Service, error) {
	return s.Patch(ctx, id, model.ServicePatch{
		Name:        &in.Name,
		Description: in.Description,
		Price:       &in.Price,
		Duration:    &in.Duration,
	})
}

// Patch updates only the supplied fields
func (s *CatalogService) Patch(ctx context.Context, id int64, p model.ServicePatch) (*model.Service, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name, price, duration := current.Name, current.Price, current.Duration
	if p.Name != nil {
		name = strings.TrimSpace(*p.Name)
		p.Name = &name
	}
	if p.Price != nil {
		price = *p.Price
	}
	if p.Duration != nil {
		duration = *p.Duration
	}
	if err := validateService(name, price, duration); err != nil {
		return nil, err
	}

	if err := s.catalogRepo.Update(ctx, id, p); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a service that nothing references
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	return deleteError(s.catalogRepo.Delete(ctx, id), ErrServiceNotFound)
}

func validateService(name string, price float64, duration int) error {
	switch {
	case name == "":
		return model.NewValidationError("name", "is required")
	case price < 0:
		return model.NewValidationError("price", "must not be negative")
	case duration <= 0:
		return model.NewValidationError("duration", "must be positive")
	}
	return nil
}
