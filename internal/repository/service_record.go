package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kushch-a/car-service-crm/internal/database"
	"github.com/kushch-a/car-service-crm/internal/model"
)

const serviceRecordColumns = `id, car_id, service_id, performed_by, date, mileage, notes, invoice_id, created_at, updated_at`

// ServiceRecordRepository handles service record data access
type ServiceRecordRepository struct {
	db database.Querier
}

// NewServiceRecordRepository creates a new service record repository
func NewServiceRecordRepository(db database.Querier) *ServiceRecordRepository {
	return &ServiceRecordRepository{db: db}
}

// Create logs performed work
func (r *ServiceRecordRepository) Create(ctx context.Context, in model.ServiceRecordInput) (*model.ServiceRecord, error) {
	ts := now()
	rec := &model.ServiceRecord{
		CarID:       in.CarID,
		ServiceID:   in.ServiceID,
		PerformedBy: in.PerformedBy,
		Date:        in.Date.UTC().Truncate(time.Microsecond),
		Mileage:     in.Mileage,
		Notes:       in.Notes,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO service_records (car_id, service_id, performed_by, date, mileage, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		rec.CarID, rec.ServiceID, rec.PerformedBy, rec.Date, nullable(rec.Mileage), nullable(rec.Notes), ts, ts,
	).Scan(&rec.ID)
	if err != nil {
		return nil, fmt.Errorf("create service record: %w", err)
	}
	return rec, nil
}

// GetByID retrieves a service record by ID
func (r *ServiceRecordRepository) GetByID(ctx context.Context, id int64) (*model.ServiceRecord, error) {
	return asNotFound(scanServiceRecord(r.db.QueryRow(ctx, `SELECT `+serviceRecordColumns+` FROM service_records WHERE id = ?`, id)))
}

// List returns service records, most recent work first
func (r *ServiceRecordRepository) List(ctx context.Context, opts ListOptions) ([]*model.ServiceRecord, error) {
	opts = opts.normalize()
	rows, err := r.db.Query(ctx, `SELECT `+serviceRecordColumns+` FROM service_records ORDER BY date DESC, id DESC LIMIT ? OFFSET ?`, opts.Limit, opts.Offset)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanServiceRecord)
}

// Update replaces the writable fields of a record. The invoice link is kept.
func (r *ServiceRecordRepository) Update(ctx context.Context, id int64, in model.ServiceRecordInput) error {
	return requireAffected(r.db.Exec(ctx, `
		UPDATE service_records
		SET car_id = ?, service_id = ?, performed_by = ?, date = ?, mileage = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		in.CarID, in.ServiceID, in.PerformedBy, in.Date.UTC().Truncate(time.Microsecond),
		nullable(in.Mileage), nullable(in.Notes), now(), id,
	))
}

// LinkInvoice attaches an invoice to a record that has none.
// It reports database.ErrNotFound when the record is missing or already linked.
func (r *ServiceRecordRepository) LinkInvoice(ctx context.Context, id, invoiceID int64) error {
	return requireAffected(r.db.Exec(ctx,
		`UPDATE service_records SET invoice_id = ?, updated_at = ? WHERE id = ? AND invoice_id IS NULL`,
		invoiceID, now(), id,
	))
}

// Delete deletes a service record
func (r *ServiceRecordRepository) Delete(ctx context.Context, id int64) error {
	return requireAffected(r.db.Exec(ctx, `DELETE FROM service_records WHERE id = ?`, id))
}

func scanServiceRecord(s scanner) (*model.ServiceRecord, error) {
	var (
		rec       model.ServiceRecord
		mileage   sql.Null[int]
		notes     sql.Null[string]
		invoiceID sql.Null[int64]
	)
	err := s.Scan(&rec.ID, &rec.CarID, &rec.ServiceID, &rec.PerformedBy, &rec.Date,
		&mileage, &notes, &invoiceID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rec.Mileage = ptrOf(mileage)
	rec.Notes = ptrOf(notes)
	rec.InvoiceID = ptrOf(invoiceID)
	return &rec, nil
}
