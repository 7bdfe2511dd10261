// Package model defines domain entities and data structures for the CRM API.
//
// The model package contains the struct definitions shared by the repository,
// service and handler layers, plus the declared error type used on the wire.
//
// # Domain Entities
//
//   - User: staff account with a role (admin, manager, master)
//   - Customer and Car: workshop clients and their vehicles
//   - Service: price list entry
//   - Invoice and InvoiceItem: billing
//   - ServiceRecord: work performed on a car
//
// # Error Types
//
// Declared failures are *APIError values. They render as the error envelope:
//
//	{"error": "rate_limited", "details": "...", "request_id": "..."}
package model
