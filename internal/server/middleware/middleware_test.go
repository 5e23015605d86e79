package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/agentstation/fieldmatch/pkg/logging"
)

// TestChain tests middleware ordering.
func TestChain(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(mark("first"), mark("second"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Join(order, ",") != "first,second,handler" {
		t.Errorf("unexpected order: %v", order)
	}
}

// TestLogger tests request logging and the context logger.
func TestLogger(t *testing.T) {
	tl := logging.NewTestLogger(t)

	var ctxHasLogger bool
	handler := Logger(tl.Logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxHasLogger = logging.FromContext(r.Context()) != logging.Default()
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scenarios", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTeapot {
		t.Errorf("expected 418, got %d", w.Code)
	}
	if !ctxHasLogger {
		t.Error("expected request logger in context")
	}
	if !tl.Contains("HTTP request") || !tl.Contains(`"status":418`) || !tl.Contains("/api/v1/scenarios") {
		t.Errorf("unexpected log output: %s", tl.Output())
	}
}

// TestRecovery tests that panics become 500 responses.
func TestRecovery(t *testing.T) {
	tl := logging.NewTestLogger(t)
	handler := Recovery(tl.Logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "INTERNAL_ERROR") {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
	if !tl.Contains("Panic recovered") {
		t.Error("expected panic to be logged")
	}
}

// TestCORS tests the go-chi/cors wrapper.
func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("any origin", func(t *testing.T) {
		handler := CORS(DefaultCORSConfig())(next)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/taxonomy", nil)
		req.Header.Set("Origin", "https://example.com")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("expected *, got %q", got)
		}
	})

	t.Run("restricted origins", func(t *testing.T) {
		cfg := DefaultCORSConfig()
		cfg.AllowedOrigins = []string{"https://app.example.com"}
		handler := CORS(cfg)(next)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/taxonomy", nil)
		req.Header.Set("Origin", "https://app.example.com")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
			t.Errorf("expected allowed origin echoed, got %q", got)
		}

		req = httptest.NewRequest(http.MethodGet, "/api/v1/taxonomy", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("expected no CORS header, got %q", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		called := false
		handler := CORS(DefaultCORSConfig())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			called = true
		}))
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/reconcile", nil)
		req.Header.Set("Origin", "https://example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if called {
			t.Error("preflight should not reach the handler")
		}
		if w.Header().Get("Access-Control-Allow-Methods") == "" {
			t.Error("expected allowed methods on preflight")
		}
	})
}
