package checkout

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmcampos/storefront/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func doCheckout(t *testing.T, f *sagaFixture, body string) *httptest.ResponseRecorder {
	t.Helper()

	handler := NewHandler(f.saga, discardLogger())

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(http.MethodPost, "/checkout", reader)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	handler.HandleCheckout(rec, req)
	return rec
}

func TestHandleCheckout(t *testing.T) {
	t.Run("returns created order", func(t *testing.T) {
		ledger := newFakeLedger(map[string]int{"prod-a": 5, "prod-b": 3})
		f := newSagaFixture(t, &fakeCartStore{lines: twoLineCart()}, ledger, &fakeOrderRepo{})

		rec := doCheckout(t, f, `{"contact":{"name":"User One","address":"1 Main St"}}`)

		require.Equal(t, http.StatusCreated, rec.Code)
		var order domain.Order
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&order))
		assert.Equal(t, int64(28000), order.Total)
		assert.Equal(t, "User One", order.Contact.Name)
	})

	t.Run("401 when not authenticated", func(t *testing.T) {
		ledger := newFakeLedger(nil)
		f := newSagaFixture(t, &fakeCartStore{}, ledger, &fakeOrderRepo{})
		f.identity.user = nil

		rec := doCheckout(t, f, "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("422 for empty cart, nothing reserved", func(t *testing.T) {
		ledger := newFakeLedger(nil)
		f := newSagaFixture(t, &fakeCartStore{}, ledger, &fakeOrderRepo{})

		rec := doCheckout(t, f, "")

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var resp checkoutErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Contains(t, resp.Error, "nothing was charged or reserved")
	})

	t.Run("409 with shortfall list", func(t *testing.T) {
		ledger := newFakeLedger(map[string]int{"prod-a": 3})
		carts := &fakeCartStore{lines: []domain.CartLine{
			{ID: "line-1", UserID: "user-1", ProductID: "prod-a", ProductName: "Product A", UnitPrice: 1000, Quantity: 5},
		}}
		f := newSagaFixture(t, carts, ledger, &fakeOrderRepo{})

		rec := doCheckout(t, f, "")

		require.Equal(t, http.StatusConflict, rec.Code)
		var resp checkoutErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Len(t, resp.Shortfalls, 1)
		assert.Equal(t, Shortfall{ProductID: "prod-a", Requested: 5, Available: 3}, resp.Shortfalls[0])
	})

	t.Run("partial failure reports the order id", func(t *testing.T) {
		ledger := newFakeLedger(map[string]int{"prod-a": 5, "prod-b": 3})
		f := newSagaFixture(t, &fakeCartStore{lines: twoLineCart()}, ledger, &fakeOrderRepo{})
		f.saga.ledger = decrementHook{fakeLedger: ledger, before: func(productID string) {
			if productID == "prod-b" {
				ledger.mu.Lock()
				ledger.stock["prod-b"] = 0
				ledger.mu.Unlock()
			}
		}}

		rec := doCheckout(t, f, "")

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		var resp checkoutErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.NotEmpty(t, resp.OrderID)
		assert.Contains(t, resp.Error, "order partially processed, contact support with order id "+resp.OrderID)
	})
}
