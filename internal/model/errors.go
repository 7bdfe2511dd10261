package model

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode"
)

// Stable machine-readable error codes
const (
	ErrCodeUnauthorized          = "unauthorized"
	ErrCodeForbidden             = "forbidden"
	ErrCodeNotFound              = "not_found"
	ErrCodeBadRequest            = "bad_request"
	ErrCodeValidation            = "validation_error"
	ErrCodeConflict              = "conflict"
	ErrCodeMethodNotAllowed      = "method_not_allowed"
	ErrCodeRateLimited           = "rate_limited"
	ErrCodeIdempotencyKeyMissing = "idempotency_key_required"
	ErrCodeInternal              = "internal_error"
)

// APIError is a declared failure with a fixed HTTP status and error code.
// Anything that is not an APIError is treated as an internal fault.
type APIError struct {
	Status  int
	Code    string
	Details string

	// RetryAfter is emitted as a Retry-After header when positive
	RetryAfter int
}

// ErrorEnvelope is the wire shape of every error response
type ErrorEnvelope struct {
	Error     string  `json:"error"`
	Details   string  `json:"details"`
	RequestID *string `json:"request_id"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("[%d] %s: %s", e.Status, e.Code, e.Details)
}

// Envelope builds the wire envelope for this error
func (e *APIError) Envelope(requestID string) ErrorEnvelope {
	env := ErrorEnvelope{
		Error:   e.Code,
		Details: e.Details,
	}
	if requestID != "" {
		env.RequestID = &requestID
	}
	return env
}

// WriteJSON writes the error envelope as the response
func (e *APIError) WriteJSON(w http.ResponseWriter, requestID string) {
	w.Header().Set("Content-Type", "application/json")
	if e.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(e.RetryAfter))
	}
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(e.Envelope(requestID))
}

// CodeFromMessage derives an error code from a human-readable message:
// lower case, with every run of non-alphanumeric characters collapsed to "_".
func CodeFromMessage(msg string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(msg) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// Common error constructors

func NewUnauthorizedError(detail string) *APIError {
	return &APIError{
		Status:  http.StatusUnauthorized,
		Code:    ErrCodeUnauthorized,
		Details: detail,
	}
}

func NewForbiddenError(detail string) *APIError {
	return &APIError{
		Status:  http.StatusForbidden,
		Code:    ErrCodeForbidden,
		Details: detail,
	}
}

func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    ErrCodeNotFound,
		Details: fmt.Sprintf("%s not found", resource),
	}
}

func NewBadRequestError(detail string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    ErrCodeBadRequest,
		Details: detail,
	}
}

func NewValidationError(field, message string) *APIError {
	return &APIError{
		Status:  http.StatusUnprocessableEntity,
		Code:    ErrCodeValidation,
		Details: fmt.Sprintf("%s: %s", field, message),
	}
}

func NewConflictError(detail string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    ErrCodeConflict,
		Details: detail,
	}
}

func NewMethodNotAllowedError(allowed string) *APIError {
	return &APIError{
		Status:  http.StatusMethodNotAllowed,
		Code:    ErrCodeMethodNotAllowed,
		Details: fmt.Sprintf("Only %s method is allowed", allowed),
	}
}

// NewInternalError never carries the underlying cause; that belongs in the server log.
func NewInternalError() *APIError {
	return &APIError{
		Status:  http.StatusInternalServerError,
		Code:    ErrCodeInternal,
		Details: "An unexpected error occurred",
	}
}

func NewRateLimitError(retryAfter int) *APIError {
	return &APIError{
		Status:     http.StatusTooManyRequests,
		Code:       ErrCodeRateLimited,
		Details:    fmt.Sprintf("Rate limit exceeded. Retry after %d seconds", retryAfter),
		RetryAfter: retryAfter,
	}
}

func NewIdempotencyKeyMissingError() *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    ErrCodeIdempotencyKeyMissing,
		Details: "Idempotency-Key header is required",
	}
}

// NewDomainError declares a business-rule rejection. The code is derived
// from the error message so the same condition always yields the same token.
func NewDomainError(status int, err error) *APIError {
	return &APIError{
		Status:  status,
		Code:    CodeFromMessage(err.Error()),
		Details: err.Error(),
	}
}
