package handler

import (
	"mime"
	"net/http"

	"github.com/kushch-a/car-service-crm/internal/model"
	"github.com/kushch-a/car-service-crm/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// LoginRequest represents the login endpoint request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /auth/login. It accepts a JSON body or an
// OAuth2 password form (username, password).
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) error {
	var req LoginRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return model.NewBadRequestError("invalid form body")
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	} else if err := DecodeJSON(w, r, &req); err != nil {
		return err
	}

	result, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	WriteJSON(w, http.StatusOK, result)
	return nil
}

// Register handles POST /auth/register and POST /users
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) error {
	var req service.RegisterRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(r.Context(), req)
	if err != nil {
		return err
	}

	WriteJSON(w, http.StatusCreated, user)
	return nil
}
