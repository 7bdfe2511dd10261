package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/kushch-a/car-service-crm/internal/model"
)

// captureHandler records the request it receives
type captureHandler struct {
	called bool
	req    *http.Request
	status int
}

func (h *captureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.req = r
	status := h.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
}

func decodeEnvelope(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var env map[string]any
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, body)
	}
	return env
}

// ============================================================================
// Chain Tests
// ============================================================================

func TestChain_NoMiddlewares_ReturnsHandler(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("handler"))
	})

	rr := httptest.NewRecorder()
	Chain(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))

	if rr.Body.String() != "handler" {
		t.Errorf("expected body 'handler', got %q", rr.Body.String())
	}
}

func TestChain_MultipleMiddlewares_AppliesInOrder(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("H"))
	})
	tag := func(s string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(s))
				next.ServeHTTP(w, r)
			})
		}
	}

	rr := httptest.NewRecorder()
	Chain(handler, tag("1"), tag("2"), tag("3")).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))

	if rr.Body.String() != "123H" {
		t.Errorf("expected '123H', got %q", rr.Body.String())
	}
}

// ============================================================================
// RequestID Tests
// ============================================================================

func TestRequestID_NoHeader_GeneratesUUID(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{}

	rr := httptest.NewRecorder()
	RequestID(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))

	responseID := rr.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(responseID); err != nil {
		t.Errorf("expected a UUID request id, got %q", responseID)
	}
	if got := GetRequestID(handler.req.Context()); got != responseID {
		t.Errorf("context id %q does not match header %q", got, responseID)
	}
}

func TestRequestID_WithHeader_ReusedVerbatim(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{}

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-Id", "client-retry-7")
	rr := httptest.NewRecorder()
	RequestID(handler).ServeHTTP(rr, req)

	if rr.Header().Get(RequestIDHeader) != "client-retry-7" {
		t.Errorf("expected echoed id, got %q", rr.Header().Get(RequestIDHeader))
	}
	if GetRequestID(handler.req.Context()) != "client-retry-7" {
		t.Error("expected id in context")
	}
}

func TestRequestID_EchoedOnRejection(t *testing.T) {
	t.Parallel()

	reject := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		model.NewForbiddenError("no").WriteJSON(w, GetRequestID(r.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rr := httptest.NewRecorder()
	RequestID(reject).ServeHTTP(rr, req)

	if rr.Header().Get(RequestIDHeader) != "abc" {
		t.Errorf("expected header on rejection, got %q", rr.Header().Get(RequestIDHeader))
	}
	if env := decodeEnvelope(t, rr.Body.Bytes()); env["request_id"] != "abc" {
		t.Errorf("expected request_id in envelope, got %v", env["request_id"])
	}
}

func TestGetRequestID_Missing_ReturnsEmpty(t *testing.T) {
	t.Parallel()

	if id := GetRequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()); id != "" {
		t.Errorf("expected empty id, got %q", id)
	}
}

// ============================================================================
// Recovery Tests
// ============================================================================

func TestRecovery_NoPanic_ProceedsNormally(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{status: http.StatusCreated}

	rr := httptest.NewRecorder()
	Recovery(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))

	if rr.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rr.Code)
	}
}

func TestRecovery_WithPanic_WritesGenericEnvelope(t *testing.T) {
	t.Parallel()

	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("pq: relation \"users\" does not exist")
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rr := httptest.NewRecorder()
	Chain(panicking, RequestID, Recovery).ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "relation") {
		t.Errorf("panic detail leaked to client: %s", rr.Body.String())
	}
	env := decodeEnvelope(t, rr.Body.Bytes())
	if env["error"] != model.ErrCodeInternal || env["request_id"] != "req-1" {
		t.Errorf("unexpected envelope: %v", env)
	}
}

// ============================================================================
// WriteError Tests
// ============================================================================

func TestWriteError_DeclaredError_KeepsStatus(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	WriteError(rr, httptest.NewRequest(http.MethodGet, "/", nil), model.NewConflictError("taken"))

	if rr.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rr.Code)
	}
	env := decodeEnvelope(t, rr.Body.Bytes())
	if env["details"] != "taken" {
		t.Errorf("unexpected details: %v", env["details"])
	}
	if v, ok := env["request_id"]; !ok || v != nil {
		t.Errorf("expected null request_id, got %v", v)
	}
}

func TestWriteError_UndeclaredError_LogsDetailOnly(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&logs, nil)))
	defer slog.SetDefault(prev)

	rr := httptest.NewRecorder()
	WriteError(rr, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("dial tcp 10.0.0.5:5432: refused"))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "10.0.0.5") {
		t.Errorf("internal detail leaked: %s", rr.Body.String())
	}
	if !strings.Contains(logs.String(), "10.0.0.5") {
		t.Errorf("expected detail in server log, got %s", logs.String())
	}
}

// ============================================================================
// CORS Tests
// ============================================================================

func TestCORS_AllowedOrigin_SetsHeader(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "https://crm.example.com")
	rr := httptest.NewRecorder()
	CORS([]string{"https://crm.example.com"})(&captureHandler{}).ServeHTTP(rr, req)

	if rr.Header().Get("Access-Control-Allow-Origin") != "https://crm.example.com" {
		t.Errorf("expected origin echoed, got %q", rr.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestCORS_DisallowedOrigin_NoHeader(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr := httptest.NewRecorder()
	CORS([]string{"https://crm.example.com"})(&captureHandler{}).ServeHTTP(rr, req)

	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("disallowed origin should not be echoed")
	}
}

func TestCORS_PreflightRequest_Returns204WithoutHandler(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{}

	req := httptest.NewRequest(http.MethodOptions, "/customers", nil)
	req.Header.Set("Origin", "https://crm.example.com")
	rr := httptest.NewRecorder()
	CORS([]string{"*"})(handler).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rr.Code)
	}
	if handler.called {
		t.Error("preflight should not reach the handler")
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Allow-Headers"), "Idempotency-Key") {
		t.Error("Idempotency-Key should be an allowed header")
	}
}

// ============================================================================
// Logger Tests
// ============================================================================

func TestLogger_RecordsStatus(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&logs, nil)))
	defer slog.SetDefault(prev)

	rr := httptest.NewRecorder()
	Logger(&captureHandler{status: http.StatusTeapot}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/cars", nil))

	var entry map[string]any
	if err := json.Unmarshal(logs.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON log line: %v", err)
	}
	if entry["msg"] != "request" || entry["path"] != "/cars" || entry["status"] != float64(http.StatusTeapot) {
		t.Errorf("unexpected log entry: %v", entry)
	}
	if entry["level"] != "WARN" {
		t.Errorf("expected client failure at WARN, got %v", entry["level"])
	}
}

func TestStatusRecorder_FirstStatusWins(t *testing.T) {
	t.Parallel()

	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
	rec.WriteHeader(http.StatusNotFound)
	rec.WriteHeader(http.StatusOK)
	_, _ = rec.Write([]byte("gone"))

	if rec.status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.status)
	}
	if rec.bytes != 4 {
		t.Errorf("expected 4 bytes, got %d", rec.bytes)
	}
}
