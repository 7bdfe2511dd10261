package repository

import (
	"context"
	"fmt"

	"github.com/kushch-a/car-service-crm/internal/database"
	"github.com/kushch-a/car-service-crm/internal/model"
)

const invoiceItemColumns = `id, invoice_id, service_id, quantity, unit_price, total, created_at, updated_at`

// InvoiceItemRepository handles invoice line data access
type InvoiceItemRepository struct {
	db database.Querier
}

// NewInvoiceItemRepository creates a new invoice item repository
func NewInvoiceItemRepository(db database.Querier) *InvoiceItemRepository {
	return &InvoiceItemRepository{db: db}
}

// Create adds a line to an invoice. Total must already be computed.
func (r *InvoiceItemRepository) Create(ctx context.Context, in model.InvoiceItemInput) (*model.InvoiceItem, error) {
	ts := now()
	item := &model.InvoiceItem{
		InvoiceID: in.InvoiceID,
		ServiceID: in.ServiceID,
		Quantity:  in.Quantity,
		UnitPrice: in.UnitPrice,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if in.Total != nil {
		item.Total = *in.Total
	}

	err := r.db.QueryRow(ctx, `
		INSERT INTO invoice_items (invoice_id, service_id, quantity, unit_price, total, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		item.InvoiceID, item.ServiceID, item.Quantity, item.UnitPrice, item.Total, ts, ts,
	).Scan(&item.ID)
	if err != nil {
		return nil, fmt.Errorf("create invoice item: %w", err)
	}
	return item, nil
}

// GetByID retrieves an invoice item by ID
func (r *InvoiceItemRepository) GetByID(ctx context.Context, id int64) (*model.InvoiceItem, error) {
	return asNotFound(scanInvoiceItem(r.db.QueryRow(ctx, `SELECT `+invoiceItemColumns+` FROM invoice_items WHERE id = ?`, id)))
}

// ListByInvoice returns the lines of one invoice
func (r *InvoiceItemRepository) ListByInvoice(ctx context.Context, invoiceID int64) ([]*model.InvoiceItem, error) {
	rows, err := r.db.Query(ctx, `SELECT `+invoiceItemColumns+` FROM invoice_items WHERE invoice_id = ? ORDER BY id`, invoiceID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanInvoiceItem)
}

// Update applies a partial update
func (r *InvoiceItemRepository) Update(ctx context.Context, id int64, p model.InvoiceItemPatch) error {
	var set updateSet
	if p.Quantity != nil {
		set.set("quantity", *p.Quantity)
	}
	if p.UnitPrice != nil {
		set.set("unit_price", *p.UnitPrice)
	}
	if p.Total != nil {
		set.set("total", *p.Total)
	}

	query, args := set.build("invoice_items", id, now())
	return requireAffected(r.db.Exec(ctx, query, args...))
}

// Delete deletes an invoice item
func (r *InvoiceItemRepository) Delete(ctx context.Context, id int64) error {
	return requireAffected(r.db.Exec(ctx, `DELETE FROM invoice_items WHERE id = ?`, id))
}

func scanInvoiceItem(s scanner) (*model.InvoiceItem, error) {
	var it model.InvoiceItem
	if err := s.Scan(&it.ID, &it.InvoiceID, &it.ServiceID, &it.Quantity, &it.UnitPrice, &it.Total, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}
