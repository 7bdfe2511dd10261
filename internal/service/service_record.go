package service

import (
	"context"
	"errors"
	"time"

	"github.com/kushch-a/car-service-crm/internal/database"
	"github.com/kushch-a/car-service-crm/internal/model"
	"github.com/kushch-a/car-service-crm/internal/repository"
)

// ServiceRecordRepository defines the interface for service record storage
type ServiceRecordRepository interface {
	Create(ctx context.Context, in model.ServiceRecordInput) (*model.ServiceRecord, error)
	GetByID(ctx context.Context, id int64) (*model.ServiceRecord, error)
	List(ctx context.Context, opts repository.ListOptions) ([]*model.ServiceRecord, error)
	Update(ctx context.Context, id int64, in model.ServiceRecordInput) error
	LinkInvoice(ctx context.Context, id, invoiceID int64) error
	Delete(ctx context.Context, id int64) error
}

// BillingRepos are the repositories used to bill a service record,
// all bound to the same transaction
type BillingRepos struct {
	Records  ServiceRecordRepository
	Invoices InvoiceRepository
	Items    InvoiceItemRepository
	Cars     CarRepository
	Catalog  CatalogRepository
}

// BillingTx runs fn inside a single transaction
type BillingTx func(ctx context.Context, fn func(r BillingRepos) error) error

// ServiceRecordService manages the log of performed work
type ServiceRecordService struct {
	recordRepo ServiceRecordRepository
	billingTx  BillingTx
	now        func() time.Time
}

// ServiceRecordServiceConfig holds configuration for the service record service
type ServiceRecordServiceConfig struct {
	RecordRepo ServiceRecordRepository
	BillingTx  BillingTx
	Now        func() time.Time
}

// NewServiceRecordService creates a new service record service
func NewServiceRecordService(cfg ServiceRecordServiceConfig) *ServiceRecordService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &ServiceRecordService{
		recordRepo: cfg.RecordRepo,
		billingTx:  cfg.BillingTx,
		now:        now,
	}
}

// Create logs performed work. The performer defaults to the caller and the
// date defaults to now.
func (s *ServiceRecordService) Create(ctx context.Context, caller *model.CallerIdentity, in model.ServiceRecordInput) (*model.ServiceRecord, error) {
	in = s.withDefaults(caller, in)
	if err := validateRecord(in); err != nil {
		return nil, err
	}
	rec, err := s.recordRepo.Create(ctx, in)
	if err != nil {
		return nil, storeError(err, nil)
	}
	return rec, nil
}

// Get retrieves a service record by ID
func (s *ServiceRecordService) Get(ctx context.Context, id int64) (*model.ServiceRecord, error) {
	rec, err := s.recordRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrServiceRecordNotFound
	}
	return rec, nil
}

// List returns service records, most recent first
func (s *ServiceRecordService) List(ctx context.Context, opts repository.ListOptions) ([]*model.ServiceRecord, error) {
	return s.recordRepo.List(ctx, opts)
}

// Update overwrites the writable fields of a record
func (s *ServiceRecordService) Update(ctx context.Context, caller *model.CallerIdentity, id int64, in model.ServiceRecordInput) (*model.ServiceRecord, error) {
	in = s.withDefaults(caller, in)
	if err := validateRecord(in); err != nil {
		return nil, err
	}
	if err := s.recordRepo.Update(ctx, id, in); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrServiceRecordNotFound
		}
		return nil, storeError(err, nil)
	}
	return s.Get(ctx, id)
}

// Delete removes a service record
func (s *ServiceRecordService) Delete(ctx context.Context, id int64) error {
	return deleteError(s.recordRepo.Delete(ctx, id), ErrServiceRecordNotFound)
}

// CreateInvoice bills a service record: it issues an unpaid invoice to the
// car owner for the service price, adds a single line, and links the
// invoice to the record. All three writes commit together.
func (s *ServiceRecordService) CreateInvoice(ctx context.Context, caller *model.CallerIdentity, recordID int64) (*model.Invoice, error) {
	var invoice *model.Invoice

	err := s.billingTx(ctx, func(r BillingRepos) error {
		rec, err := r.Records.GetByID(ctx, recordID)
		if err != nil {
			return err
		}
		if rec == nil {
			return ErrServiceRecordNotFound
		}
		if rec.InvoiceID != nil {
			return ErrInvoiceAlreadyExists
		}

		car, err := r.Cars.GetByID(ctx, rec.CarID)
		if err != nil {
			return err
		}
		svc, err := r.Catalog.GetByID(ctx, rec.ServiceID)
		if err != nil {
			return err
		}
		if car == nil || svc == nil {
			return ErrCarOrServiceNotFound
		}

		due := s.now().UTC()
		var createdBy *int64
		if caller != nil {
			id := caller.SubjectID
			createdBy = &id
		}
		invoice, err = r.Invoices.Create(ctx, model.InvoiceInput{
			CustomerID:    car.CustomerID,
			CarID:         car.ID,
			WorkerID:      rec.PerformedBy,
			ServiceID:     svc.ID,
			TotalAmount:   svc.Price,
			PaymentStatus: model.PaymentUnpaid,
			WorkStatus:    model.WorkNew,
			DueDate:       &due,
		}, createdBy)
		if err != nil {
			return err
		}

		total := svc.Price
		if _, err := r.Items.Create(ctx, model.InvoiceItemInput{
			InvoiceID: invoice.ID,
			ServiceID: svc.ID,
			Quantity:  1,
			UnitPrice: svc.Price,
			Total:     &total,
		}); err != nil {
			return err
		}

		// A concurrent biller linked the record first
		if err := r.Records.LinkInvoice(ctx, rec.ID, invoice.ID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrInvoiceAlreadyExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err, nil)
	}
	return invoice, nil
}

func (s *ServiceRecordService) withDefaults(caller *model.CallerIdentity, in model.ServiceRecordInput) model.ServiceRecordInput {
	if in.PerformedBy == 0 && caller != nil {
		in.PerformedBy = caller.SubjectID
	}
	if in.Date.IsZero() {
		in.Date = s.now()
	}
	return in
}

func validateRecord(in model.ServiceRecordInput) error {
	switch {
	case in.CarID <= 0:
		return model.NewValidationError("car_id", "is required")
	case in.ServiceID <= 0:
		return model.NewValidationError("service_id", "is required")
	case in.Mileage != nil && *in.Mileage < 0:
		return model.NewValidationError("mileage", "must not be negative")
	}
	return nil
}
