package service

import (
	"context"
	"errors"
	"math"

	"github.com/kushch-a/car-service-crm/internal/database"
	"github.com/kushch-a/car-service-crm/internal/model"
)

// InvoiceItemRepository defines the interface for invoice line storage
type InvoiceItemRepository interface {
	Create(ctx context.Context, in model.InvoiceItemInput) (*model.InvoiceItem, error)
	GetByID(ctx context.Context, id int64) (*model.InvoiceItem, error)
	ListByInvoice(ctx context.Context, invoiceID int64) ([]*model.InvoiceItem, error)
	Update(ctx context.Context, id int64, p model.InvoiceItemPatch) error
	Delete(ctx context.Context, id int64) error
}

// InvoiceItemService manages invoice lines
type InvoiceItemService struct {
	itemRepo    InvoiceItemRepository
	invoiceRepo InvoiceRepository
}

// InvoiceItemServiceConfig holds configuration for the invoice item service
type InvoiceItemServiceConfig struct {
	ItemRepo    InvoiceItemRepository
	InvoiceRepo InvoiceRepository
}

// NewInvoiceItemService creates a new invoice item service
func NewInvoiceItemService(cfg InvoiceItemServiceConfig) *InvoiceItemService {
	return &InvoiceItemService{
		itemRepo:    cfg.ItemRepo,
		invoiceRepo: cfg.InvoiceRepo,
	}
}

// Create adds a line to an invoice. Total defaults to quantity × unit price.
func (s *InvoiceItemService) Create(ctx context.Context, in model.InvoiceItemInput) (*model.InvoiceItem, error) {
	if err := validateItem(&in.Quantity, &in.UnitPrice, in.Total); err != nil {
		return nil, err
	}
	if in.Total == nil {
		total := lineTotal(in.Quantity, in.UnitPrice)
		in.Total = &total
	}

	inv, err := s.invoiceRepo.GetByID(ctx, in.InvoiceID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrInvoiceNotFound
	}

	item, err := s.itemRepo.Create(ctx, in)
	if err != nil {
		return nil, storeError(err, nil)
	}
	return item, nil
}

// Get retrieves an invoice item by ID
func (s *InvoiceItemService) Get(ctx context.Context, id int64) (*model.InvoiceItem, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrInvoiceItemNotFound
	}
	return item, nil
}

// ListByInvoice returns the lines of an invoice
func (s *InvoiceItemService) ListByInvoice(ctx context.Context, invoiceID int64) ([]*model.InvoiceItem, error) {
	return s.itemRepo.ListByInvoice(ctx, invoiceID)
}

// Patch updates a line. Changing quantity or unit price without an
// explicit total recomputes the total.
func (s *InvoiceItemService) Patch(ctx context.Context, id int64, p model.InvoiceItemPatch) (*model.InvoiceItem, error) {
	if err := validateItem(p.Quantity, p.UnitPrice, p.Total); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Total == nil && (p.Quantity != nil || p.UnitPrice != nil) {
		qty, price := current.Quantity, current.UnitPrice
		if p.Quantity != nil {
			qty = *p.Quantity
		}
		if p.UnitPrice != nil {
			price = *p.UnitPrice
		}
		total := lineTotal(qty, price)
		p.Total = &total
	}

	if err := s.itemRepo.Update(ctx, id, p); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvoiceItemNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes an invoice line
func (s *InvoiceItemService) Delete(ctx context.Context, id int64) error {
	return deleteError(s.itemRepo.Delete(ctx, id), ErrInvoiceItemNotFound)
}

// lineTotal rounds to cents
func lineTotal(qty int, unitPrice float64) float64 {
	return math.Round(float64(qty)*unitPrice*100) / 100
}

func validateItem(qty *int, unitPrice, total *float64) error {
	if qty != nil && *qty <= 0 {
		return model.NewValidationError("quantity", "must be positive")
	}
	if unitPrice != nil && *unitPrice < 0 {
		return model.NewValidationError("unit_price", "must not be negative")
	}
	if total != nil && *total < 0 {
		return model.NewValidationError("total", "must not be negative")
	}
	return nil
}
