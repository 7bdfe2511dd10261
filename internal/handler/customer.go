package handler

import (
	"net/http"

	"github.com/kushch-a/car-service-crm/internal/model"
	"github.com/kushch-a/car-service-crm/internal/service"
)

// CustomerHandler handles customer endpoints
type CustomerHandler struct {
	customerService *service.CustomerService
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerService *service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// Create handles POST /customers
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) error {
	var in model.CustomerInput
	if err := DecodeJSON(w, r, &in); err != nil {
		return err
	}
	customer, err := h.customerService.Create(r.Context(), in)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusCreated, customer)
	return nil
}

// List handles GET /customers
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) error {
	opts, err := ListOptions(r)
	if err != nil {
		return err
	}
	customers, err := h.customerService.List(r.Context(), opts)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusOK, nonNil(customers))
	return nil
}

// Get handles GET /customers/{id}
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) error {
	id, err := PathID(r, "id")
	if err != nil {
		return err
	}
	customer, err := h.customerService.Get(r.Context(), id)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusOK, customer)
	return nil
}

// Replace handles PUT /customers/{id}
func (h *CustomerHandler) Replace(w http.ResponseWriter, r *http.Request) error {
	id, err := PathID(r, "id")
	if err != nil {
		return err
	}
	var in model.CustomerInput
	if err := DecodeJSON(w, r, &in); err != nil {
		return err
	}
	customer, err := h.customerService.Replace(r.Context(), id, in)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusOK, customer)
	return nil
}

// Patch handles PATCH /customers/{id}
func (h *CustomerHandler) Patch(w http.ResponseWriter, r *http.Request) error {
	id, err := PathID(r, "id")
	if err != nil {
		return err
	}
	var p model.CustomerPatch
	if err := DecodeJSON(w, r, &p); err != nil {
		return err
	}
	customer, err := h.customerService.Patch(r.Context(), id, p)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusOK, customer)
	return nil
}

// Delete handles DELETE /customers/{id}
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	id, err := PathID(r, "id")
	if err != nil {
		return err
	}
	if err := h.customerService.Delete(r.Context(), id); err != nil {
		return err
	}
	WriteNoContent(w)
	return nil
}
