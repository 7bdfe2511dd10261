package service

import (
	"context"
	"errors"

	"github.com/kushch-a/car-service-crm/internal/database"
	"github.com/kushch-a/car-service-crm/internal/model"
	"github.com/kushch-a/car-service-crm/internal/repository"
)

// InvoiceRepository defines the interface for invoice storage
type InvoiceRepository interface {
	Create(ctx context.Context, in model.InvoiceInput, createdBy *int64) (*model.Invoice, error)
	GetByID(ctx context.Context, id int64) (*model.Invoice, error)
	List(ctx context.Context, f repository.InvoiceFilter, opts repository.ListOptions) ([]*model.Invoice, error)
	Update(ctx context.Context, id int64, p model.InvoicePatch) error
	Delete(ctx context.Context, id int64) error
}

// InvoiceService manages billing
type InvoiceService struct {
	invoiceRepo InvoiceRepository
	carRepo     CarRepository
}

// InvoiceServiceConfig holds configuration for the invoice service
type InvoiceServiceConfig struct {
	InvoiceRepo InvoiceRepository
	CarRepo     CarRepository
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(cfg InvoiceServiceConfig) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: cfg.InvoiceRepo,
		carRepo:     cfg.CarRepo,
	}
}

// Create issues an invoice on behalf of caller
func (s *InvoiceService) Create(ctx context.Context, caller *model.CallerIdentity, in model.InvoiceInput) (*model.Invoice, error) {
	if in.PaymentStatus == "" {
		in.PaymentStatus = model.PaymentUnpaid
	}
	if in.WorkStatus == "" {
		in.WorkStatus = model.WorkNew
	}
	if err := validateInvoiceFields(&in.TotalAmount, &in.PaymentStatus, &in.WorkStatus); err != nil {
		return nil, err
	}

	car, err := s.carRepo.GetByID(ctx, in.CarID)
	if err != nil {
		return nil, err
	}
	if car == nil {
		return nil, ErrCarNotFound
	}
	if car.CustomerID != in.CustomerID {
		return nil, ErrCarNotOwned
	}

	var createdBy *int64
	if caller != nil {
		id := caller.SubjectID
		createdBy = &id
	}
	inv, err := s.invoiceRepo.Create(ctx, in, createdBy)
	if err != nil {
		return nil, storeError(err, nil)
	}
	return inv, nil
}

// Get retrieves an invoice by ID
func (s *InvoiceService) Get(ctx context.Context, id int64) (*model.Invoice, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInvoiceNotFound
	}
	return inv, nil
}

// List returns the invoices visible to caller. Masters only see their own.
func (s *InvoiceService) List(ctx context.Context, caller *model.CallerIdentity, opts repository.ListOptions) ([]*model.Invoice, error) {
	var f repository.InvoiceFilter
	if caller.Role == model.UserRoleMaster {
		id := caller.SubjectID
		f.WorkerID = &id
	}
	return s.invoiceRepo.List(ctx, f, opts)
}

// Patch updates an invoice. Masters may only touch invoices assigned to
// them, and only their work and payment status.
func (s *InvoiceService) Patch(ctx context.Context, caller *model.CallerIdentity, id int64, p model.InvoicePatch) (*model.Invoice, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if caller.Role == model.UserRoleMaster {
		if inv.WorkerID != caller.SubjectID {
			return nil, ErrNotAssignedWorker
		}
		p = p.StatusOnly()
	}

	if err := validateInvoiceFields(p.TotalAmount, p.PaymentStatus, p.WorkStatus); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Update(ctx, id, p); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, storeError(err, nil)
	}
	return s.Get(ctx, id)
}

// Delete removes an invoice and its items
func (s *InvoiceService) Delete(ctx context.Context, id int64) error {
	return deleteError(s.invoiceRepo.Delete(ctx, id), ErrInvoiceNotFound)
}

func validateInvoiceFields(total *float64, payment *model.PaymentStatus, work *model.WorkStatus) error {
	if total != nil && *total < 0 {
		return model.NewValidationError("total_amount", "must not be negative")
	}
	if payment != nil && !payment.Valid() {
		return model.NewValidationError("payment_status", "must be one of unpaid, paid, cancelled")
	}
	if work != nil && !work.Valid() {
		return model.NewValidationError("work_status", "must be one of new, in_progress, done")
	}
	return nil
}
