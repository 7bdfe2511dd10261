package handler

import (
	"errors"
	"net/http"

	"github.com/kushch-a/car-service-crm/internal/model"
	"github.com/kushch-a/car-service-crm/internal/service"
)

// MapServiceError converts an error returned by a service into a declared
// API error. This is the one place that assigns HTTP statuses to business
// rejections. Errors it does not recognise map to the internal error.
func MapServiceError(err error) *model.APIError {
	if err == nil {
		return nil
	}

	// Already declared (validation, bad request, auth)
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	// ===== Authentication Errors → 401 =====
	case errors.Is(err, service.ErrInvalidCredentials):
		return model.NewDomainError(http.StatusUnauthorized, service.ErrInvalidCredentials)

	// ===== Authorization Errors → 403 =====
	case errors.Is(err, service.ErrUserInactive):
		return model.NewDomainError(http.StatusForbidden, service.ErrUserInactive)
	case errors.Is(err, service.ErrNotAssignedWorker):
		return model.NewDomainError(http.StatusForbidden, service.ErrNotAssignedWorker)

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrUserNotFound):
		return model.NewDomainError(http.StatusNotFound, service.ErrUserNotFound)
	case errors.Is(err, service.ErrCustomerNotFound):
		return model.NewDomainError(http.StatusNotFound, service.ErrCustomerNotFound)
	case errors.Is(err, service.ErrCarNotFound):
		return model.NewDomainError(http.StatusNotFound, service.ErrCarNotFound)
	case errors.Is(err, service.ErrServiceNotFound):
		return model.NewDomainError(http.StatusNotFound, service.ErrServiceNotFound)
	case errors.Is(err, service.ErrInvoiceNotFound):
		return model.NewDomainError(http.StatusNotFound, service.ErrInvoiceNotFound)
	case errors.Is(err, service.ErrInvoiceItemNotFound):
		return model.NewDomainError(http.StatusNotFound, service.ErrInvoiceItemNotFound)
	case errors.Is(err, service.ErrServiceRecordNotFound):
		return model.NewDomainError(http.StatusNotFound, service.ErrServiceRecordNotFound)

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrUsernameExists):
		return model.NewDomainError(http.StatusConflict, service.ErrUsernameExists)
	case errors.Is(err, service.ErrVINExists):
		return model.NewDomainError(http.StatusConflict, service.ErrVINExists)
	case errors.Is(err, service.ErrRecordInUse):
		return model.NewDomainError(http.StatusConflict, service.ErrRecordInUse)

	// ===== Validation Errors → 422 =====
	case errors.Is(err, service.ErrPasswordTooShort):
		return model.NewDomainError(http.StatusUnprocessableEntity, service.ErrPasswordTooShort)
	case errors.Is(err, service.ErrPasswordTooLong):
		return model.NewDomainError(http.StatusUnprocessableEntity, service.ErrPasswordTooLong)
	case errors.Is(err, service.ErrInvalidEmail):
		return model.NewDomainError(http.StatusUnprocessableEntity, service.ErrInvalidEmail)
	case errors.Is(err, service.ErrInvalidRole):
		return model.NewDomainError(http.StatusUnprocessableEntity, service.ErrInvalidRole)
	case errors.Is(err, service.ErrCarNotOwned):
		return model.NewDomainError(http.StatusUnprocessableEntity, service.ErrCarNotOwned)
	case errors.Is(err, service.ErrReferenceNotFound):
		return model.NewDomainError(http.StatusUnprocessableEntity, service.ErrReferenceNotFound)

	// ===== Rule Violations → 400 =====
	case errors.Is(err, service.ErrInvoiceAlreadyExists):
		return model.NewDomainError(http.StatusBadRequest, service.ErrInvoiceAlreadyExists)
	case errors.Is(err, service.ErrCarOrServiceNotFound):
		return model.NewDomainError(http.StatusBadRequest, service.ErrCarOrServiceNotFound)
	case errors.Is(err, service.ErrCannotDeleteSelf):
		return model.NewDomainError(http.StatusBadRequest, service.ErrCannotDeleteSelf)

	// ===== Default → 500 =====
	default:
		return model.NewInternalError()
	}
}
