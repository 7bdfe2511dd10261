package service

import (
	"context"
	"errors"
	"strings"

	"github.com/kushch-a/car-service-crm/internal/database"
	"github.com/kushch-a/car-service-crm/internal/model"
	"github.com/kushch-a/car-service-crm/internal/repository"
)

// CustomerRepository defines the interface for customer storage
type CustomerRepository interface {
	Create(ctx context.Context, in model.CustomerInput) (*model.Customer, error)
	GetByID(ctx context.Context, id int64) (*model.Customer, error)
	List(ctx context.Context, opts repository.ListOptions) ([]*model.Customer, error)
	Update(ctx context.Context, id int64, in model.CustomerInput) error
	Delete(ctx context.Context, id int64) error
}

// CustomerService manages workshop clients
type CustomerService struct {
	customerRepo CustomerRepository
}

// CustomerServiceConfig holds configuration for the customer service
type CustomerServiceConfig struct {
	CustomerRepo CustomerRepository
}

// NewCustomerService creates a new customer service
func NewCustomerService(cfg CustomerServiceConfig) *CustomerService {
	return &CustomerService{customerRepo: cfg.CustomerRepo}
}

// Create registers a new customer
func (s *CustomerService) Create(ctx context.Context, in model.CustomerInput) (*model.Customer, error) {
	in, err := normalizeCustomer(in)
	if err != nil {
		return nil, err
	}
	return s.customerRepo.Create(ctx, in)
}

// Get retrieves a customer by ID
func (s *CustomerService) Get(ctx context.Context, id int64) (*model.Customer, error) {
	c, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCustomerNotFound
	}
	return c, nil
}

// List returns customers
func (s *CustomerService) List(ctx context.Context, opts repository.ListOptions) ([]*model.Customer, error) {
	return s.customerRepo.List(ctx, opts)
}

// Replace overwrites every writable field
func (s *CustomerService) Replace(ctx context.Context, id int64, in model.CustomerInput) (*model.Customer, error) {
	in, err := normalizeCustomer(in)
	if err != nil {
		return nil, err
	}
	if err := s.customerRepo.Update(ctx, id, in); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// Patch updates only the supplied fields
func (s *CustomerService) Patch(ctx context.Context, id int64, p model.CustomerPatch) (*model.Customer, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Replace(ctx, id, p.Apply(current))
}

// Delete removes a customer without cars or invoices
func (s *CustomerService) Delete(ctx context.Context, id int64) error {
	return deleteError(s.customerRepo.Delete(ctx, id), ErrCustomerNotFound)
}

func normalizeCustomer(in model.CustomerInput) (model.CustomerInput, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	switch {
	case in.FirstName == "":
		return in, model.NewValidationError("first_name", "is required")
	case in.LastName == "":
		return in, model.NewValidationError("last_name", "is required")
	case in.Phone == "":
		return in, model.NewValidationError("phone", "is required")
	case !isValidEmail(in.Email):
		return in, ErrInvalidEmail
	}
	if in.Address != nil && strings.TrimSpace(*in.Address) == "" {
		in.Address = nil
	}
	return in, nil
}
