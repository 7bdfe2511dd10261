package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kushch-a/car-service-crm/internal/model"
	"github.com/kushch-a/car-service-crm/internal/service"
)

func TestMapServiceError_Sentinels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		status int
		code   string
	}{
		{service.ErrInvalidCredentials, http.StatusUnauthorized, "incorrect_username_or_password"},
		{service.ErrUserInactive, http.StatusForbidden, "user_is_inactive"},
		{service.ErrNotAssignedWorker, http.StatusForbidden, "invoice_is_assigned_to_another_worker"},
		{service.ErrUserNotFound, http.StatusNotFound, "user_not_found"},
		{service.ErrCustomerNotFound, http.StatusNotFound, "customer_not_found"},
		{service.ErrCarNotFound, http.StatusNotFound, "car_not_found"},
		{service.ErrServiceNotFound, http.StatusNotFound, "service_not_found"},
		{service.ErrInvoiceNotFound, http.StatusNotFound, "invoice_not_found"},
		{service.ErrInvoiceItemNotFound, http.StatusNotFound, "invoice_item_not_found"},
		{service.ErrServiceRecordNotFound, http.StatusNotFound, "service_record_not_found"},
		{service.ErrUsernameExists, http.StatusConflict, "username_already_exists"},
		{service.ErrVINExists, http.StatusConflict, "a_car_with_this_vin_already_exists"},
		{service.ErrRecordInUse, http.StatusConflict, "record_is_still_referenced_by_other_records"},
		{service.ErrPasswordTooShort, http.StatusUnprocessableEntity, "password_must_be_at_least_6_characters"},
		{service.ErrInvalidEmail, http.StatusUnprocessableEntity, "invalid_email_format"},
		{service.ErrInvalidRole, http.StatusUnprocessableEntity, "role_must_be_one_of_admin_manager_master"},
		{service.ErrCarNotOwned, http.StatusUnprocessableEntity, "car_does_not_belong_to_customer"},
		{service.ErrReferenceNotFound, http.StatusUnprocessableEntity, "referenced_record_does_not_exist"},
		{service.ErrInvoiceAlreadyExists, http.StatusBadRequest, "invoice_already_exists_for_this_record"},
		{service.ErrCarOrServiceNotFound, http.StatusBadRequest, "car_or_service_not_found"},
		{service.ErrCannotDeleteSelf, http.StatusBadRequest, "cannot_delete_your_own_account"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			t.Parallel()
			got := MapServiceError(tt.err)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.err.Error(), got.Details)
		})
	}
}

func TestMapServiceError_WrappedSentinel_SameCode(t *testing.T) {
	t.Parallel()

	got := MapServiceError(fmt.Errorf("create user %q: %w", "olena", service.ErrUsernameExists))

	assert.Equal(t, http.StatusConflict, got.Status)
	assert.Equal(t, "username_already_exists", got.Code)
	assert.Equal(t, "username already exists", got.Details, "wrapping context must not leak into details")
}

func TestMapServiceError_DeclaredErrorPassesThrough(t *testing.T) {
	t.Parallel()
	declared := model.NewValidationError("year", "must be between 1900 and 2027")

	got := MapServiceError(fmt.Errorf("validate: %w", declared))

	assert.Same(t, declared, got)
}

func TestMapServiceError_Unknown_IsInternal(t *testing.T) {
	t.Parallel()

	got := MapServiceError(errors.New("pq: deadlock detected"))

	require.NotNil(t, got)
	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.Equal(t, model.ErrCodeInternal, got.Code)
	assert.NotContains(t, got.Details, "deadlock")
}

func TestMapServiceError_Nil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, MapServiceError(nil))
}
