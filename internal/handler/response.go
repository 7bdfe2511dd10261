package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/kushch-a/car-service-crm/internal/middleware"
	"github.com/kushch-a/car-service-crm/internal/model"
	"github.com/kushch-a/car-service-crm/internal/repository"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// Func is an HTTP handler that reports failure by returning an error.
// ServeHTTP renders the error as the envelope, so handlers never write
// error bodies themselves.
type Func func(w http.ResponseWriter, r *http.Request) error

// ServeHTTP implements http.Handler
func (f Func) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := f(w, r)
	if err == nil {
		return
	}
	if apiErr := MapServiceError(err); apiErr.Code != model.ErrCodeInternal {
		middleware.WriteError(w, r, apiErr)
		return
	}
	// Undeclared: WriteError logs the cause and hides it from the client
	middleware.WriteError(w, r, err)
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteNoContent writes a 204 No Content response
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// DecodeJSON decodes a JSON request body into v, rejecting unknown fields
// and trailing data
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return model.NewBadRequestError("request body too large")
		case errors.Is(err, io.EOF):
			return model.NewBadRequestError("request body is empty")
		}
		return model.NewBadRequestError("invalid request body")
	}
	if decoder.More() {
		return model.NewBadRequestError("invalid request body")
	}
	return nil
}

// PathID parses a positive integer path parameter
func PathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}

// ListOptions reads skip/limit query parameters
func ListOptions(r *http.Request) (repository.ListOptions, error) {
	var opts repository.ListOptions
	q := r.URL.Query()

	if v := q.Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, model.NewValidationError("skip", "must be a non-negative integer")
		}
		opts.Offset = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > repository.MaxListLimit {
			return opts, model.NewValidationError("limit", fmt.Sprintf("must be between 1 and %d", repository.MaxListLimit))
		}
		opts.Limit = n
	}
	return opts, nil
}

// NotFound renders the envelope for unmatched routes
func NotFound(w http.ResponseWriter, r *http.Request) {
	middleware.WriteError(w, r, model.NewNotFoundError("resource"))
}
