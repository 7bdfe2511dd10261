// Package service implements the business logic layer for the CRM API.
//
// The service package contains domain rules, validation, and orchestration
// of repository operations. Services sit between HTTP handlers and data access.
//
// # Service Pattern
//
// All services follow a consistent pattern:
//
//   - Constructor function (NewXxxService) accepts a config struct with repository dependencies
//   - Methods implement business operations with proper validation
//   - Errors are returned as sentinel errors, or as *model.APIError for field validation
//   - Context is passed through for cancellation and request-scoped values
//
// # Repository Interfaces
//
// Services define their own repository interfaces, allowing easy mocking
// in unit tests and decoupling from the SQL implementation.
//
// # Error Handling
//
// Services return domain errors defined in errors.go:
//
//	var (
//	    ErrCarNotFound          = errors.New("car not found")
//	    ErrInvoiceAlreadyExists = errors.New("invoice already exists for this record")
//	)
//
// The handler layer maps each sentinel to an HTTP status; the error code in
// the response body is derived from the message.
//
// # Role Rules
//
// Route-level role checks happen in middleware. Services enforce the rules
// that depend on the data itself, such as a master only changing the status
// of invoices assigned to them.
package service
