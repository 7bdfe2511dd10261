package handler

import (
	"net/http"

	"github.com/kushch-a/car-service-crm/internal/middleware"
	"github.com/kushch-a/car-service-crm/internal/model"
	"github.com/kushch-a/car-service-crm/internal/service"
)

// InvoiceHandler handles invoice and invoice item endpoints
type InvoiceHandler struct {
	invoiceService *service.InvoiceService
	itemService    *service.InvoiceItemService
}

// InvoiceHandlerConfig holds the services behind the invoice endpoints
type InvoiceHandlerConfig struct {
	InvoiceService *service.InvoiceService
	ItemService    *service.InvoiceItemService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(cfg InvoiceHandlerConfig) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: cfg.InvoiceService,
		itemService:    cfg.ItemService,
	}
}

// Create handles POST /invoices
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) error {
	var in model.InvoiceInput
	if err := DecodeJSON(w, r, &in); err != nil {
		return err
	}
	inv, err := h.invoiceService.Create(r.Context(), middleware.GetCaller(r.Context()), in)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusCreated, inv)
	return nil
}

// List handles GET /invoices. Masters only see invoices assigned to them.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) error {
	opts, err := ListOptions(r)
	if err != nil {
		return err
	}
	invoices, err := h.invoiceService.List(r.Context(), middleware.GetCaller(r.Context()), opts)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusOK, nonNil(invoices))
	return nil
}

// Get handles GET /invoices/{id}
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) error {
	id, err := PathID(r, "id")
	if err != nil {
		return err
	}
	inv, err := h.invoiceService.Get(r.Context(), id)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusOK, inv)
	return nil
}

// Patch handles PATCH /invoices/{id}
func (h *InvoiceHandler) Patch(w http.ResponseWriter, r *http.Request) error {
	id, err := PathID(r, "id")
	if err != nil {
		return err
	}
	var p model.InvoicePatch
	if err := DecodeJSON(w, r, &p); err != nil {
		return err
	}
	inv, err := h.invoiceService.Patch(r.Context(), middleware.GetCaller(r.Context()), id, p)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusOK, inv)
	return nil
}

// Delete handles DELETE /invoices/{id}
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	id, err := PathID(r, "id")
	if err != nil {
		return err
	}
	if err := h.invoiceService.Delete(r.Context(), id); err != nil {
		return err
	}
	WriteNoContent(w)
	return nil
}

// CreateItem handles POST /invoice-items
func (h *InvoiceHandler) CreateItem(w http.ResponseWriter, r *http.Request) error {
	var in model.InvoiceItemInput
	if err := DecodeJSON(w, r, &in); err != nil {
		return err
	}
	item, err := h.itemService.Create(r.Context(), in)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusCreated, item)
	return nil
}

// ListItems handles GET /invoice-items/by-invoice/{id}
func (h *InvoiceHandler) ListItems(w http.ResponseWriter, r *http.Request) error {
	invoiceID, err := PathID(r, "id")
	if err != nil {
		return err
	}
	items, err := h.itemService.ListByInvoice(r.Context(), invoiceID)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusOK, nonNil(items))
	return nil
}

// GetItem handles GET /invoice-items/{id}
func (h *InvoiceHandler) GetItem(w http.ResponseWriter, r *http.Request) error {
	id, err := PathID(r, "id")
	if err != nil {
		return err
	}
	item, err := h.itemService.Get(r.Context(), id)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusOK, item)
	return nil
}

// PatchItem handles PATCH /invoice-items/{id}
func (h *InvoiceHandler) PatchItem(w http.ResponseWriter, r *http.Request) error {
	id, err := PathID(r, "id")
	if err != nil {
		return err
	}
	var p model.InvoiceItemPatch
	if err := DecodeJSON(w, r, &p); err != nil {
		return err
	}
	item, err := h.itemService.Patch(r.Context(), id, p)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusOK, item)
	return nil
}

// DeleteItem handles DELETE /invoice-items/{id}
func (h *InvoiceHandler) DeleteItem(w http.ResponseWriter, r *http.Request) error {
	id, err := PathID(r, "id")
	if err != nil {
		return err
	}
	if err := h.itemService.Delete(r.Context(), id); err != nil {
		return err
	}
	WriteNoContent(w)
	return nil
}
