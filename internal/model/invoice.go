package model

import "time"

// PaymentStatus of an invoice
type PaymentStatus string

const (
	PaymentUnpaid    PaymentStatus = "unpaid"
	PaymentPaid      PaymentStatus = "paid"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Valid reports whether s is a known payment status
func (s PaymentStatus) Valid() bool {
	return s == PaymentUnpaid || s == PaymentPaid || s == PaymentCancelled
}

// WorkStatus of the job behind an invoice
type WorkStatus string

const (
	WorkNew        WorkStatus = "new"
	WorkInProgress WorkStatus = "in_progress"
	WorkDone       WorkStatus = "done"
)

// Valid reports whether s is a known work status
func (s WorkStatus) Valid() bool {
	return s == WorkNew || s == WorkInProgress || s == WorkDone
}

// Invoice bills a customer for work on a car
type Invoice struct {
	ID            int64         `json:"id"`
	CustomerID    int64         `json:"customer_id"`
	CarID         int64         `json:"car_id"`
	WorkerID      int64         `json:"worker_id"`
	ServiceID     int64         `json:"service_id"`
	TotalAmount   float64       `json:"total_amount"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	WorkStatus    WorkStatus    `json:"work_status"`
	IssueDate     time.Time     `json:"issue_date"`
	DueDate       *time.Time    `json:"due_date,omitempty"`
	CreatedBy     *int64        `json:"created_by,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// InvoiceInput is the payload to create an invoice
type InvoiceInput struct {
	CustomerID    int64         `json:"customer_id"`
	CarID         int64         `json:"car_id"`
	WorkerID      int64         `json:"worker_id"`
	ServiceID     int64         `json:"service_id"`
	TotalAmount   float64       `json:"total_amount"`
	PaymentStatus PaymentStatus `json:"payment_status,omitempty"`
	WorkStatus    WorkStatus    `json:"work_status,omitempty"`
	DueDate       *time.Time    `json:"due_date,omitempty"`
}

// InvoicePatch holds a partial invoice update; nil fields are left unchanged
type InvoicePatch struct {
	CustomerID    *int64         `json:"customer_id,omitempty"`
	CarID         *int64         `json:"car_id,omitempty"`
	WorkerID      *int64         `json:"worker_id,omitempty"`
	ServiceID     *int64         `json:"service_id,omitempty"`
	TotalAmount   *float64       `json:"total_amount,omitempty"`
	PaymentStatus *PaymentStatus `json:"payment_status,omitempty"`
	WorkStatus    *WorkStatus    `json:"work_status,omitempty"`
}

// StatusOnly keeps only the fields a master may change on own invoices
func (p InvoicePatch) StatusOnly() InvoicePatch {
	return InvoicePatch{
		PaymentStatus: p.PaymentStatus,
		WorkStatus:    p.WorkStatus,
	}
}

// InvoiceItem is a billed line of an invoice
type InvoiceItem struct {
	ID        int64     `json:"id"`
	InvoiceID int64     `json:"invoice_id"`
	ServiceID int64     `json:"service_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
	Total     float64   `json:"total"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InvoiceItemInput is the payload to create an invoice item.
// Total is computed from Quantity and UnitPrice when omitted.
type InvoiceItemInput struct {
	InvoiceID int64    `json:"invoice_id"`
	ServiceID int64    `json:"service_id"`
	Quantity  int      `json:"quantity"`
	UnitPrice float64  `json:"unit_price"`
	Total     *float64 `json:"total,omitempty"`
}

// InvoiceItemPatch holds a partial invoice item update
type InvoiceItemPatch struct {
	Quantity  *int     `json:"quantity,omitempty"`
	UnitPrice *float64 `json:"unit_price,omitempty"`
	Total     *float64 `json:"total,omitempty"`
}

// ServiceRecord logs work performed on a car
type ServiceRecord struct {
	ID          int64     `json:"id"`
	CarID       int64     `json:"car_id"`
	ServiceID   int64     `json:"service_id"`
	PerformedBy int64     `json:"performed_by"`
	Date        time.Time `json:"date"`
	Mileage     *int      `json:"mileage,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	InvoiceID   *int64    `json:"invoice_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ServiceRecordInput is the writable part of a service record
type ServiceRecordInput struct {
	CarID       int64     `json:"car_id"`
	ServiceID   int64     `json:"service_id"`
	PerformedBy int64     `json:"performed_by"`
	Date        time.Time `json:"date"`
	Mileage     *int      `json:"mileage,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
}
