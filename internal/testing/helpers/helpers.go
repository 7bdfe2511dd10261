package helpers

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kushch-a/car-service-crm/internal/model"
	"github.com/kushch-a/car-service-crm/pkg/jwt"
)

const testIssuer = "crm-test"

// ============================================================================
// Tokens
// ============================================================================

// JWTHelper issues tokens for tests. Its Service validates what it signs.
type JWTHelper struct {
	t       *testing.T
	Service *jwt.Service
}

// NewJWTHelper creates a helper around a fresh in-memory key
func NewJWTHelper(t *testing.T) *JWTHelper {
	t.Helper()
	return &JWTHelper{t: t, Service: NewTestJWTService(t)}
}

// NewTestJWTService creates a signing service with an in-memory key
func NewTestJWTService(t *testing.T) *jwt.Service {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("helpers: generate RSA key: %v", err)
	}
	return jwt.NewTestService(key, testIssuer, 15*time.Minute)
}

// GenerateToken issues a token naming the user's id, username and role
func (h *JWTHelper) GenerateToken(user *model.User) string {
	return h.sign(claimsFor(user))
}

// GenerateExpiredToken issues a token for the user that expired a minute ago
func (h *JWTHelper) GenerateExpiredToken(user *model.User) string {
	c := claimsFor(user)
	c.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	return h.sign(c)
}

func (h *JWTHelper) sign(c jwt.Claims) string {
	h.t.Helper()
	token, err := h.Service.Sign(c)
	if err != nil {
		h.t.Fatalf("helpers: sign token: %v", err)
	}
	return token
}

func claimsFor(user *model.User) jwt.Claims {
	return jwt.Claims{Subject: user.Username, UserID: user.ID, Role: string(user.Role)}
}

// ============================================================================
// Requests
// ============================================================================

// RequestBuilder assembles a request for a handler or the full router
type RequestBuilder struct {
	t      *testing.T
	method string
	target string
	body   any
	header http.Header
	remote string
}

// NewRequest starts a request for method and target
func NewRequest(t *testing.T, method, target string) *RequestBuilder {
	t.Helper()
	return &RequestBuilder{t: t, method: method, target: target, header: http.Header{}}
}

// WithBody sets a value to send as the JSON body
func (rb *RequestBuilder) WithBody(body any) *RequestBuilder {
	rb.body = body
	return rb
}

// WithHeader sets a request header
func (rb *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	rb.header.Set(key, value)
	return rb
}

// WithIdempotencyKey sets the Idempotency-Key header
func (rb *RequestBuilder) WithIdempotencyKey(key string) *RequestBuilder {
	return rb.WithHeader("Idempotency-Key", key)
}

// WithRemoteAddr sets the client address seen by the rate limiter
func (rb *RequestBuilder) WithRemoteAddr(addr string) *RequestBuilder {
	rb.remote = addr
	return rb
}

// WithAuth attaches a bearer token for user signed by h
func (rb *RequestBuilder) WithAuth(h *JWTHelper, user *model.User) *RequestBuilder {
	return rb.WithHeader("Authorization", "Bearer "+h.GenerateToken(user))
}

// Build returns the assembled request
func (rb *RequestBuilder) Build() *http.Request {
	rb.t.Helper()

	var buf bytes.Buffer
	if rb.body != nil {
		if err := json.NewEncoder(&buf).Encode(rb.body); err != nil {
			rb.t.Fatalf("helpers: encode body: %v", err)
		}
	}

	req := httptest.NewRequest(rb.method, rb.target, &buf)
	if rb.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range rb.header {
		req.Header[k] = v
	}
	if rb.remote != "" {
		req.RemoteAddr = rb.remote
	}
	return req
}

// ============================================================================
// Assertions
// ============================================================================

// AssertStatus reports a status mismatch along with the body
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("expected status %d, got %d. Body: %s", want, rr.Code, rr.Body.String())
	}
}

// AssertErrorEnvelope checks the status and that the body is exactly the
// three-field error envelope. An empty code skips the code check.
func AssertErrorEnvelope(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) model.ErrorEnvelope {
	t.Helper()
	AssertStatus(t, rr, status)

	body := rr.Body.Bytes()
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		t.Fatalf("decode error envelope: %v. Body: %s", err, body)
	}
	if len(fields) != 3 {
		t.Errorf("error envelope should have exactly 3 fields. Body: %s", body)
	}
	for _, k := range []string{"error", "details", "request_id"} {
		if _, ok := fields[k]; !ok {
			t.Errorf("error envelope missing %q. Body: %s", k, body)
		}
	}

	var env model.ErrorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if code != "" && env.Error != code {
		t.Errorf("expected error code %q, got %q", code, env.Error)
	}
	return env
}

// DecodeResponse unmarshals the body into v
func DecodeResponse(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v. Body: %s", err, rr.Body.String())
	}
}
