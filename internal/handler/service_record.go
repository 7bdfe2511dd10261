package handler

import (
	"net/http"

	"github.com/kushch-a/car-service-crm/internal/middleware"
	"github.com/kushch-a/car-service-crm/internal/model"
	"github.com/kushch-a/car-service-crm/internal/service"
)

// ServiceRecordHandler handles the log of performed work
type ServiceRecordHandler struct {
	recordService *service.ServiceRecordService
}

// NewServiceRecordHandler creates a new service record handler
func NewServiceRecordHandler(recordService *service.ServiceRecordService) *ServiceRecordHandler {
	return &ServiceRecordHandler{recordService: recordService}
}

// Create handles POST /service-records
func (h *ServiceRecordHandler) Create(w http.ResponseWriter, r *http.Request) error {
	var in model.ServiceRecordInput
	if err := DecodeJSON(w, r, &in); err != nil {
		return err
	}
	rec, err := h.recordService.Create(r.Context(), middleware.GetCaller(r.Context()), in)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusCreated, rec)
	return nil
}

// List handles GET /service-records
func (h *ServiceRecordHandler) List(w http.ResponseWriter, r *http.Request) error {
	opts, err := ListOptions(r)
	if err != nil {
		return err
	}
	records, err := h.recordService.List(r.Context(), opts)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusOK, nonNil(records))
	return nil
}

// Get handles GET /service-records/{id}
func (h *ServiceRecordHandler) Get(w http.ResponseWriter, r *http.Request) error {
	id, err := PathID(r, "id")
	if err != nil {
		return err
	}
	rec, err := h.recordService.Get(r.Context(), id)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusOK, rec)
	return nil
}

// Update handles PUT /service-records/{id}
func (h *ServiceRecordHandler) Update(w http.ResponseWriter, r *http.Request) error {
	id, err := PathID(r, "id")
	if err != nil {
		return err
	}
	var in model.ServiceRecordInput
	if err := DecodeJSON(w, r, &in); err != nil {
		return err
	}
	rec, err := h.recordService.Update(r.Context(), middleware.GetCaller(r.Context()), id, in)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusOK, rec)
	return nil
}

// Delete handles DELETE /service-records/{id}
func (h *ServiceRecordHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	id, err := PathID(r, "id")
	if err != nil {
		return err
	}
	if err := h.recordService.Delete(r.Context(), id); err != nil {
		return err
	}
	WriteNoContent(w)
	return nil
}

// CreateInvoice handles POST /service-records/{id}/create-invoice
func (h *ServiceRecordHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) error {
	id, err := PathID(r, "id")
	if err != nil {
		return err
	}
	inv, err := h.recordService.CreateInvoice(r.Context(), middleware.GetCaller(r.Context()), id)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusCreated, inv)
	return nil
}
