// Package repository implements the data access layer for the CRM API.
//
// Each repository struct handles CRUD operations for one table.
//
// # Repository Pattern
//
// All repositories follow a consistent pattern:
//
//   - Constructor function (NewXxxRepository) accepts a database.Querier
//   - Methods implement specific data operations (Create, GetByID, Update, Delete, etc.)
//   - Queries use "?" placeholders and are rebound by the database package
//   - Timestamps are set in Go, in UTC, so both drivers store the same values
//
// # Lookups
//
// GetByXxx methods return (nil, nil) when the row does not exist. Update and
// Delete return database.ErrNotFound when no row matched.
//
// # Transactions
//
// Because a database.Transaction is also a Querier, a repository can be
// bound to a transaction for multi-table writes:
//
//	err := database.WithTx(ctx, db, func(q database.Querier) error {
//	    invoices := repository.NewInvoiceRepository(q)
//	    records := repository.NewServiceRecordRepository(q)
//	    ...
//	})
package repository
