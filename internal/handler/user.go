package handler

import (
	"net/http"

	"github.com/kushch-a/car-service-crm/internal/middleware"
	"github.com/kushch-a/car-service-crm/internal/model"
	"github.com/kushch-a/car-service-crm/internal/service"
)

// UserHandler handles staff account endpoints
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List handles GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) error {
	opts, err := ListOptions(r)
	if err != nil {
		return err
	}
	users, err := h.userService.List(r.Context(), opts)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusOK, nonNil(users))
	return nil
}

// Me handles GET /users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) error {
	caller := middleware.GetCaller(r.Context())
	if caller == nil {
		return model.NewUnauthorizedError("not authenticated")
	}
	user, err := h.userService.Get(r.Context(), caller.SubjectID)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusOK, user)
	return nil
}

// Get handles GET /users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) error {
	id, err := PathID(r, "id")
	if err != nil {
		return err
	}
	user, err := h.userService.Get(r.Context(), id)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusOK, user)
	return nil
}

// Update handles PATCH /users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) error {
	id, err := PathID(r, "id")
	if err != nil {
		return err
	}
	var upd model.UserUpdate
	if err := DecodeJSON(w, r, &upd); err != nil {
		return err
	}
	user, err := h.userService.Update(r.Context(), id, upd)
	if err != nil {
		return err
	}
	WriteJSON(w, http.StatusOK, user)
	return nil
}

// Delete handles DELETE /users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	id, err := PathID(r, "id")
	if err != nil {
		return err
	}
	if err := h.userService.Delete(r.Context(), middleware.GetCaller(r.Context()), id); err != nil {
		return err
	}
	WriteNoContent(w)
	return nil
}

// nonNil makes empty lists encode as [] rather than null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
