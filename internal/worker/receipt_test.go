package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rmcampos/storefront/internal/domain"
)

func TestReceiptHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	placedPayload := func(t *testing.T) []byte {
		t.Helper()
		payload, err := json.Marshal(domain.OrderPlacedEvent{
			OrderID:   "order-1",
			UserID:    "user-1",
			Email:     "user-1@example.com",
			Total:     28000,
			LineCount: 2,
			Timestamp: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("failed to marshal event: %v", err)
		}
		return payload
	}

	t.Run("posts receipt to email service", func(t *testing.T) {
		var sent map[string]string
		emailServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/send" {
				t.Errorf("expected /send, got %s", r.URL.Path)
			}
			if err := json.NewDecoder(r.Body).Decode(&sent); err != nil {
				t.Errorf("failed to decode email body: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer emailServer.Close()

		handler := NewReceiptHandler(emailServer.URL, emailServer.Client(), logger)

		if err := handler.Handle(context.Background(), placedPayload(t)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if sent["to"] != "user-1@example.com" {
			t.Errorf("expected receipt to user-1@example.com, got %q", sent["to"])
		}
		if !strings.Contains(sent["subject"], "order-1") {
			t.Errorf("expected subject to mention the order id, got %q", sent["subject"])
		}
		if !strings.Contains(sent["body"], "280.00") {
			t.Errorf("expected body to mention the total, got %q", sent["body"])
		}
	})

	t.Run("propagates email service failure", func(t *testing.T) {
		emailServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer emailServer.Close()

		handler := NewReceiptHandler(emailServer.URL, emailServer.Client(), logger)

		if err := handler.Handle(context.Background(), placedPayload(t)); err == nil {
			t.Fatal("expected error when email service fails")
		}
	})

	t.Run("rejects malformed payload", func(t *testing.T) {
		handler := NewReceiptHandler("http://unused", http.DefaultClient, logger)

		if err := handler.Handle(context.Background(), []byte("not json")); err == nil {
			t.Fatal("expected error for malformed payload")
		}
	})
}
