package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kushch-a/car-service-crm/internal/model"
	"github.com/kushch-a/car-service-crm/pkg/jwt"
)

// Mock implementations

type mockVerifier struct {
	validateFunc func(token string) (*jwt.Claims, error)
}

func (m *mockVerifier) Validate(token string) (*jwt.Claims, error) {
	return m.validateFunc(token)
}

func verifierFor(subject string) *mockVerifier {
	return &mockVerifier{validateFunc: func(token string) (*jwt.Claims, error) {
		if token != "good-token" {
			return nil, jwt.ErrInvalidSignature
		}
		return &jwt.Claims{Subject: subject, Role: "admin"}, nil
	}}
}

type mockUsers struct {
	users map[string]*model.User
	err   error
}

func (m *mockUsers) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.users[username], nil
}

func usersWith(u *model.User) *mockUsers {
	return &mockUsers{users: map[string]*model.User{u.Username: u}}
}

func newAuthRequest(authHeader string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	return req
}

var activeManager = &model.User{ID: 5, Username: "maria", Role: model.UserRoleManager, IsActive: true}

// ============================================================================
// Authenticate Tests
// ============================================================================

func TestAuthenticate_ValidToken_RoleFromAccount(t *testing.T) {
	t.Parallel()
	gate := NewAuthGate(verifierFor("maria"), usersWith(activeManager))

	caller, err := gate.Authenticate(context.Background(), "good-token")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if caller.SubjectID != 5 || caller.Username != "maria" {
		t.Errorf("unexpected caller: %+v", caller)
	}
	// The token claims admin; the account says manager
	if caller.Role != model.UserRoleManager {
		t.Errorf("expected role from account, got %q", caller.Role)
	}
}

func TestAuthenticate_Failures_AreUnauthorized(t *testing.T) {
	t.Parallel()
	inactive := &model.User{ID: 6, Username: "old", Role: model.UserRoleAdmin, IsActive: false}

	tests := []struct {
		name  string
		gate  *AuthGate
		token string
	}{
		{"bad signature", NewAuthGate(verifierFor("maria"), usersWith(activeManager)), "forged"},
		{"expired", NewAuthGate(&mockVerifier{validateFunc: func(string) (*jwt.Claims, error) { return nil, jwt.ErrTokenExpired }}, usersWith(activeManager)), "t"},
		{"malformed", NewAuthGate(&mockVerifier{validateFunc: func(string) (*jwt.Claims, error) { return nil, jwt.ErrInvalidToken }}, usersWith(activeManager)), "t"},
		{"unknown subject", NewAuthGate(verifierFor("ghost"), usersWith(activeManager)), "good-token"},
		{"inactive subject", NewAuthGate(verifierFor("old"), usersWith(inactive)), "good-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := tt.gate.Authenticate(context.Background(), tt.token)

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
				t.Errorf("expected 401 APIError, got %v", err)
			}
		})
	}
}

func TestAuthenticate_LookupFailure_IsNotUnauthorized(t *testing.T) {
	t.Parallel()
	boom := errors.New("connection reset")
	gate := NewAuthGate(verifierFor("maria"), &mockUsers{err: boom})

	_, err := gate.Authenticate(context.Background(), "good-token")

	if !errors.Is(err, boom) {
		t.Errorf("expected lookup error to propagate, got %v", err)
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		t.Error("a store outage must not be reported as a credential problem")
	}
}

// ============================================================================
// Authorize Tests
// ============================================================================

func TestAuthorize(t *testing.T) {
	t.Parallel()
	gate := NewAuthGate(nil, nil)
	master := &model.CallerIdentity{SubjectID: 1, Role: model.UserRoleMaster}

	tests := []struct {
		name   string
		caller *model.CallerIdentity
		roles  []model.UserRole
		status int
	}{
		{"any authenticated", master, nil, 0},
		{"role in set", master, []model.UserRole{model.UserRoleManager, model.UserRoleMaster}, 0},
		{"role outside set", master, []model.UserRole{model.UserRoleAdmin, model.UserRoleManager}, http.StatusForbidden},
		{"no caller", nil, []model.UserRole{model.UserRoleAdmin}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.Authorize(tt.caller, tt.roles...)
			if tt.status == 0 {
				if err != nil {
					t.Errorf("expected nil, got %v", err)
				}
				return
			}
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Status != tt.status {
				t.Errorf("expected %d, got %v", tt.status, err)
			}
		})
	}
}

func TestAuthorize_ForbiddenDoesNotNameRoles(t *testing.T) {
	t.Parallel()
	gate := NewAuthGate(nil, nil)

	err := gate.Authorize(&model.CallerIdentity{Role: model.UserRoleMaster}, model.UserRoleAdmin)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	for _, role := range []string{"admin", "manager"} {
		if strings.Contains(apiErr.Details, role) {
			t.Errorf("forbidden detail leaks role %q: %q", role, apiErr.Details)
		}
	}
}

// ============================================================================
// Require Middleware Tests
// ============================================================================

func TestRequire_HeaderProblems_Return401(t *testing.T) {
	t.Parallel()
	gate := NewAuthGate(verifierFor("maria"), usersWith(activeManager))

	for _, header := range []string{"", "good-token", "Basic good-token", "Bearer", "Bearer   "} {
		handler := &captureHandler{}
		rr := httptest.NewRecorder()
		gate.Require()(handler).ServeHTTP(rr, newAuthRequest(header))

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected 401, got %d", header, rr.Code)
		}
		if handler.called {
			t.Errorf("header %q: handler must not run", header)
		}
		if env := decodeEnvelope(t, rr.Body.Bytes()); env["error"] != model.ErrCodeUnauthorized {
			t.Errorf("header %q: expected unauthorized code, got %v", header, env["error"])
		}
	}
}

func TestRequire_AllowedRole_SetsCaller(t *testing.T) {
	t.Parallel()
	gate := NewAuthGate(verifierFor("maria"), usersWith(activeManager))
	handler := &captureHandler{}

	rr := httptest.NewRecorder()
	gate.Require(model.UserRoleAdmin, model.UserRoleManager)(handler).ServeHTTP(rr, newAuthRequest("bearer good-token"))

	if rr.Code != http.StatusOK || !handler.called {
		t.Fatalf("expected handler to run, got %d", rr.Code)
	}
	caller := GetCaller(handler.req.Context())
	if caller == nil || caller.SubjectID != 5 {
		t.Errorf("expected caller in context, got %+v", caller)
	}
}

func TestRequire_DisallowedRole_Returns403(t *testing.T) {
	t.Parallel()
	gate := NewAuthGate(verifierFor("maria"), usersWith(activeManager))
	handler := &captureHandler{}

	rr := httptest.NewRecorder()
	gate.Require(model.UserRoleAdmin)(handler).ServeHTTP(rr, newAuthRequest("Bearer good-token"))

	if rr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rr.Code)
	}
	if handler.called {
		t.Error("handler must not run")
	}
}

func TestRequire_LookupFailure_Returns500(t *testing.T) {
	t.Parallel()
	gate := NewAuthGate(verifierFor("maria"), &mockUsers{err: errors.New("db down")})

	rr := httptest.NewRecorder()
	gate.Require()(&captureHandler{}).ServeHTTP(rr, newAuthRequest("Bearer good-token"))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
}

func TestGetCaller_Missing_ReturnsNil(t *testing.T) {
	t.Parallel()

	if GetCaller(context.Background()) != nil {
		t.Error("expected nil caller")
	}
}
