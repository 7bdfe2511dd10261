package handler

import (
	"net/http"

	"github.com/kushch-a/car-service-crm/internal/model"
	"github.com/kushch-a/car-service-crm/internal/service"
)

// CatalogHandler handles the workshop price list (/services)
type CatalogHandler struct {
	catalogService *service.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) error {
	var in model.ServiceInput
	if err := DecodeJSON(w, r, &in); err != nil {
		return err
	}
	svc, err := h.catalogService.Create(r.Context(), in)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusCreated, svc)
	return nil
}

func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) error {
	opts, err := ListOptions(r)
	if err != nil {
		return err
	}
	services, err := h.catalogService.List(r.Context(), opts)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusOK, nonNil(services))
	return nil
}

func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) error {
	id, err := PathID(r, "id")
	if err != nil {
		return err
	}
	svc, err := h.catalogService.Get(r.Context(), id)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusOK, svc)
	return nil
}

func (h *CatalogHandler) Replace(w http.ResponseWriter, r *http.Request) error {
	id, err := PathID(r, "id")
	if err != nil {
		return err
	}
	var in model.ServiceInput
	if err := DecodeJSON(w, r, &in); err != nil {
		return err
	}
	svc, err := h.catalogService.Replace(r.Context(), id, in)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusOK, svc)
	return nil
}

func (h *CatalogHandler) Patch(w http.ResponseWriter, r *http.Request) error {
	id, err := PathID(r, "id")
	if err != nil {
		return err
	}
	var p model.ServicePatch
	if err := DecodeJSON(w, r, &p); err != nil {
		return err
	}
	svc, err := h.catalogService.Patch(r.Context(), id, p)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusOK, svc)
	return nil
}

func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	id, err := PathID(r, "id")
	if err != nil {
		return err
	}
	if err := h.catalogService.Delete(r.Context(), id); err != nil {
		return err
	}
	WriteNoContent(w)
	return nil
}
