package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestHandler(backendURL string) *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(NewServiceProxy(backendURL, http.DefaultClient), logger)
}

func TestHandler_HandleStorefront(t *testing.T) {
	t.Run("proxies GET and preserves body", func(t *testing.T) {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/stock" {
				t.Errorf("expected /stock, got %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`[{"product_id":"prod-a","stock":7}]`))
		}))
		defer backend.Close()

		handler := newTestHandler(backend.URL)
		rec := httptest.NewRecorder()
		handler.HandleStorefront(rec, httptest.NewRequest(http.MethodGet, "/stock", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
		if got := rec.Header().Get("Content-Type"); got != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", got)
		}
		if body := rec.Body.String(); !strings.Contains(body, "prod-a") {
			t.Errorf("unexpected body: %s", body)
		}
	})

	t.Run("preserves downstream status", func(t *testing.T) {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"insufficient stock"}`))
		}))
		defer backend.Close()

		handler := newTestHandler(backend.URL)
		rec := httptest.NewRecorder()
		handler.HandleStorefront(rec, httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{}`)))

		if rec.Code != http.StatusConflict {
			t.Errorf("expected status 409, got %d", rec.Code)
		}
	})

	t.Run("returns 502 when backend is unavailable", func(t *testing.T) {
		handler := newTestHandler("http://127.0.0.1:1")
		rec := httptest.NewRecorder()
		handler.HandleStorefront(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected status 502, got %d", rec.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body["error"] != "service unavailable" {
			t.Errorf("unexpected error message: %s", body["error"])
		}
	})
}
