package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kushch-a/car-service-crm/internal/database"
	"github.com/kushch-a/car-service-crm/internal/model"
)

const invoiceColumns = `id, customer_id, car_id, worker_id, service_id, total_amount, payment_status, work_status,
	issue_date, due_date, created_by, created_at, updated_at`

// InvoiceFilter narrows an invoice listing
type InvoiceFilter struct {
	// WorkerID limits results to invoices assigned to one worker
	WorkerID *int64
}

// InvoiceRepository handles invoice data access
type InvoiceRepository struct {
	db database.Querier
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db database.Querier) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Create creates a new invoice. Statuses must already be defaulted.
func (r *InvoiceRepository) Create(ctx context.Context, in model.InvoiceInput, createdBy *int64) (*model.Invoice, error) {
	ts := now()
	inv := &model.Invoice{
		CustomerID:    in.CustomerID,
		CarID:         in.CarID,
		WorkerID:      in.WorkerID,
		ServiceID:     in.ServiceID,
		TotalAmount:   in.TotalAmount,
		PaymentStatus: in.PaymentStatus,
		WorkStatus:    in.WorkStatus,
		IssueDate:     ts,
		DueDate:       in.DueDate,
		CreatedBy:     createdBy,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	if inv.DueDate != nil {
		due := inv.DueDate.UTC().Truncate(time.Microsecond)
		inv.DueDate = &due
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO invoices (customer_id, car_id, worker_id, service_id, total_amount, payment_status, work_status,
			issue_date, due_date, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		inv.CustomerID, inv.CarID, inv.WorkerID, inv.ServiceID, inv.TotalAmount,
		string(inv.PaymentStatus), string(inv.WorkStatus),
		inv.IssueDate, nullable(inv.DueDate), nullable(inv.CreatedBy), ts, ts,
	).Scan(&inv.ID)
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return inv, nil
}

// GetByID retrieves an invoice by ID
func (r *InvoiceRepository) GetByID(ctx context.Context, id int64) (*model.Invoice, error) {
	return asNotFound(scanInvoice(r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id)))
}

// List returns invoices ordered by ID
func (r *InvoiceRepository) List(ctx context.Context, f InvoiceFilter, opts ListOptions) ([]*model.Invoice, error) {
	opts = opts.normalize()

	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	var args []any
	if f.WorkerID != nil {
		query += ` WHERE worker_id = ?`
		args = append(args, *f.WorkerID)
	}
	query += ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanInvoice)
}

// Update applies a partial update
func (r *InvoiceRepository) Update(ctx context.Context, id int64, p model.InvoicePatch) error {
	var set updateSet
	if p.CustomerID != nil {
		set.set("customer_id", *p.CustomerID)
	}
	if p.CarID != nil {
		set.set("car_id", *p.CarID)
	}
	if p.WorkerID != nil {
		set.set("worker_id", *p.WorkerID)
	}
	if p.ServiceID != nil {
		set.set("service_id", *p.ServiceID)
	}
	if p.TotalAmount != nil {
		set.set("total_amount", *p.TotalAmount)
	}
	if p.PaymentStatus != nil {
		set.set("payment_status", string(*p.PaymentStatus))
	}
	if p.WorkStatus != nil {
		set.set("work_status", string(*p.WorkStatus))
	}

	query, args := set.build("invoices", id, now())
	return requireAffected(r.db.Exec(ctx, query, args...))
}

// Delete deletes an invoice and, by cascade, its items
func (r *InvoiceRepository) Delete(ctx context.Context, id int64) error {
	return requireAffected(r.db.Exec(ctx, `DELETE FROM invoices WHERE id = ?`, id))
}

func scanInvoice(s scanner) (*model.Invoice, error) {
	var (
		inv       model.Invoice
		payment   string
		work      string
		due       sql.Null[time.Time]
		createdBy sql.Null[int64]
	)
	err := s.Scan(&inv.ID, &inv.CustomerID, &inv.CarID, &inv.WorkerID, &inv.ServiceID, &inv.TotalAmount,
		&payment, &work, &inv.IssueDate, &due, &createdBy, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	inv.PaymentStatus = model.PaymentStatus(payment)
	inv.WorkStatus = model.WorkStatus(work)
	inv.DueDate = ptrOf(due)
	inv.CreatedBy = ptrOf(createdBy)
	return &inv, nil
}
