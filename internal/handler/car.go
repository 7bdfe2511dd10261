package handler

import (
	"net/http"

	"github.com/kushch-a/car-service-crm/internal/model"
	"github.com/kushch-a/car-service-crm/internal/service"
)

// CarHandler handles car endpoints
type CarHandler struct {
	carService *service.CarService
}

// NewCarHandler creates a new car handler
func NewCarHandler(carService *service.CarService) *CarHandler {
	return &CarHandler{carService: carService}
}

// Create handles POST /cars
func (h *CarHandler) Create(w http.ResponseWriter, r *http.Request) error {
	var in model.CarInput
	if err := DecodeJSON(w, r, &in); err != nil {
		return err
	}
	car, err := h.carService.Create(r.Context(), in)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusCreated, car)
	return nil
}

// List handles GET /cars
func (h *CarHandler) List(w http.ResponseWriter, r *http.Request) error {
	opts, err := ListOptions(r)
	if err != nil {
		return err
	}
	cars, err := h.carService.List(r.Context(), opts)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusOK, nonNil(cars))
	return nil
}

// Get handles GET /cars/{id}
func (h *CarHandler) Get(w http.ResponseWriter, r *http.Request) error {
	id, err := PathID(r, "id")
	if err != nil {
		return err
	}
	car, err := h.carService.Get(r.Context(), id)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusOK, car)
	return nil
}

// GetByVIN handles GET /cars/by-vin/{vin}
func (h *CarHandler) GetByVIN(w http.ResponseWriter, r *http.Request) error {
	car, err := h.carService.GetByVIN(r.Context(), r.PathValue("vin"))
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusOK, car)
	return nil
}

// Update handles PUT /cars/{id}
func (h *CarHandler) Update(w http.ResponseWriter, r *http.Request) error {
	id, err := PathID(r, "id")
	if err != nil {
		return err
	}
	var in model.CarInput
	if err := DecodeJSON(w, r, &in); err != nil {
		return err
	}
	car, err := h.carService.Update(r.Context(), id, in)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusOK, car)
	return nil
}

// Delete handles DELETE /cars/{id}
func (h *CarHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	id, err := PathID(r, "id")
	if err != nil {
		return err
	}
	if err := h.carService.Delete(r.Context(), id); err != nil {
		return err
	}
	WriteNoContent(w)
	return nil
}
