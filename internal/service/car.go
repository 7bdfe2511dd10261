package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kushch-a/car-service-crm/internal/database"
	"github.com/kushch-a/car-service-crm/internal/model"
	"github.com/kushch-a/car-service-crm/internal/repository"
)

// Oldest model year accepted for a car
const minCarYear = 1900

// CarRepository defines the interface for car storage
type CarRepository interface {
	Create(ctx context.Context, in model.CarInput) (*model.Car, error)
	GetByID(ctx context.Context, id int64) (*model.Car, error)
	GetByVIN(ctx context.Context, vin string) (*model.Car, error)
	List(ctx context.Context, opts repository.ListOptions) ([]*model.Car, error)
	Update(ctx context.Context, id int64, in model.CarInput) error
	Delete(ctx context.Context, id int64) error
}

// CarService manages customer vehicles
type CarService struct {
	carRepo      CarRepository
	customerRepo CustomerRepository
	now          func() time.Time
}

// CarServiceConfig holds configuration for the car service
type CarServiceConfig struct {
	CarRepo      CarRepository
	CustomerRepo CustomerRepository

	// Now is the clock used for the model year bound; defaults to time.Now
	Now func() time.Time
}

// NewCarService creates a new car service
func NewCarService(cfg CarServiceConfig) *CarService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &CarService{
		carRepo:      cfg.CarRepo,
		customerRepo: cfg.CustomerRepo,
		now:          now,
	}
}

// Create registers a car for an existing customer
func (s *CarService) Create(ctx context.Context, in model.CarInput) (*model.Car, error) {
	in, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}
	car, err := s.carRepo.Create(ctx, in)
	if err != nil {
		return nil, storeError(err, ErrVINExists)
	}
	return car, nil
}

// Get retrieves a car by ID
func (s *CarService) Get(ctx context.Context, id int64) (*model.Car, error) {
	car, err := s.carRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if car == nil {
		return nil, ErrCarNotFound
	}
	return car, nil
}

// GetByVIN retrieves a car by VIN
func (s *CarService) GetByVIN(ctx context.Context, vin string) (*model.Car, error) {
	car, err := s.carRepo.GetByVIN(ctx, strings.ToUpper(strings.TrimSpace(vin)))
	if err != nil {
		return nil, err
	}
	if car == nil {
		return nil, ErrCarNotFound
	}
	return car, nil
}

// List returns cars
func (s *CarService) List(ctx context.Context, opts repository.ListOptions) ([]*model.Car, error) {
	return s.carRepo.List(ctx, opts)
}

// Update overwrites every writable field
func (s *CarService) Update(ctx context.Context, id int64, in model.CarInput) (*model.Car, error) {
	in, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.carRepo.Update(ctx, id, in); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrCarNotFound
		}
		return nil, storeError(err, ErrVINExists)
	}
	return s.Get(ctx, id)
}

// Delete removes a car without invoices or service records
func (s *CarService) Delete(ctx context.Context, id int64) error {
	return deleteError(s.carRepo.Delete(ctx, id), ErrCarNotFound)
}

func (s *CarService) validate(ctx context.Context, in model.CarInput) (model.CarInput, error) {
	in.Brand = strings.TrimSpace(in.Brand)
	in.Model = strings.TrimSpace(in.Model)
	if in.Brand == "" {
		return in, model.NewValidationError("brand", "is required")
	}
	if in.Model == "" {
		return in, model.NewValidationError("model", "is required")
	}
	maxYear := s.now().Year() + 1
	if in.Year < minCarYear || in.Year > maxYear {
		return in, model.NewValidationError("year", fmt.Sprintf("must be between %d and %d", minCarYear, maxYear))
	}
	if in.VIN != nil {
		vin := strings.ToUpper(strings.TrimSpace(*in.VIN))
		if vin == "" {
			in.VIN = nil
		} else {
			in.VIN = &vin
		}
	}

	owner, err := s.customerRepo.GetByID(ctx, in.CustomerID)
	if err != nil {
		return in, err
	}
	if owner == nil {
		return in, ErrCustomerNotFound
	}
	return in, nil
}
