package service

import (
	"errors"

	"github.com/kushch-a/car-service-crm/internal/database"
)

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable. The message of each
// error is also its public detail; its error code is derived from it.

// ===== Authentication Errors =====
var (
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrUserInactive       = errors.New("user is inactive")
	ErrUsernameExists     = errors.New("username already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 72 characters")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrInvalidRole        = errors.New("role must be one of admin, manager, master")
	ErrCannotDeleteSelf   = errors.New("cannot delete your own account")
)

// ===== Customer and Car Errors =====
var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrCarNotFound      = errors.New("car not found")
	ErrVINExists        = errors.New("a car with this vin already exists")
	ErrCarNotOwned      = errors.New("car does not belong to customer")
)

// ===== Catalog Errors =====
var (
	ErrServiceNotFound = errors.New("service not found")
)

// ===== Invoice Errors =====
var (
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrInvoiceItemNotFound = errors.New("invoice item not found")
	ErrNotAssignedWorker   = errors.New("invoice is assigned to another worker")
)

// ===== Service Record Errors =====
var (
	ErrServiceRecordNotFound = errors.New("service record not found")
	ErrInvoiceAlreadyExists  = errors.New("invoice already exists for this record")
	ErrCarOrServiceNotFound  = errors.New("car or service not found")
)

// ===== Integrity Errors =====
var (
	ErrReferenceNotFound = errors.New("referenced record does not exist")
	ErrRecordInUse       = errors.New("record is still referenced by other records")
)

// storeError translates storage constraint failures into service errors.
// dup is returned for unique violations; other errors pass through.
func storeError(err, dup error) error {
	switch {
	case err == nil:
		return nil
	case dup != nil && errors.Is(err, database.ErrDuplicate):
		return dup
	case errors.Is(err, database.ErrReferenced):
		return ErrReferenceNotFound
	}
	return err
}

// deleteError translates a failed delete into service errors
func deleteError(err, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, database.ErrNotFound):
		return notFound
	case errors.Is(err, database.ErrReferenced):
		return ErrRecordInUse
	}
	return err
}
