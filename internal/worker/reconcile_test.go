package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/rmcampos/storefront/internal/checkout"
	"github.com/rmcampos/storefront/internal/domain"
	"github.com/rmcampos/storefront/internal/inventory"
)

type fakeLedger struct {
	stock      map[string]int
	decrements map[string]int
}

func newFakeLedger(stock map[string]int) *fakeLedger {
	return &fakeLedger{stock: stock, decrements: map[string]int{}}
}

func (f *fakeLedger) Decrement(_ context.Context, productID string, qty int) (int, error) {
	stock, ok := f.stock[productID]
	if !ok {
		return 0, inventory.ErrProductNotFound
	}
	if stock < qty {
		return 0, inventory.ErrInsufficientStock
	}
	f.stock[productID] = stock - qty
	f.decrements[productID] += qty
	return stock - qty, nil
}

type fakeOrders struct {
	statuses map[string]domain.OrderStatus
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if f.statuses == nil {
		f.statuses = map[string]domain.OrderStatus{}
	}
	f.statuses[id] = status
	return &domain.Order{ID: id, Status: status}, nil
}

type fakeCarts struct {
	cleared  []string
	clearErr error
}

func (f *fakeCarts) Clear(_ context.Context, userID string) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared = append(f.cleared, userID)
	return nil
}

func marshalEvent(t *testing.T, event domain.CheckoutFailedEvent) []byte {
	t.Helper()
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}
	return payload
}

func TestReconcileHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("completes missing decrements and clears the cart", func(t *testing.T) {
		ledger := newFakeLedger(map[string]int{"prod-a": 5, "prod-b": 3})
		orders := &fakeOrders{}
		carts := &fakeCarts{}
		handler := NewReconcileHandler(ledger, orders, carts, logger)

		event := domain.CheckoutFailedEvent{
			OrderID:    "order-1",
			UserID:     "user-1",
			FailedStep: checkout.StepStockDecremented.String(),
			Outcomes: []domain.LineOutcome{
				{ProductID: "prod-a", Quantity: 2, Decremented: true},
				{ProductID: "prod-b", Quantity: 1, Decremented: false},
			},
			Timestamp: time.Now().UTC(),
		}

		if err := handler.Handle(context.Background(), marshalEvent(t, event)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if ledger.decrements["prod-a"] != 0 {
			t.Errorf("already-applied decrement must not repeat, got %d", ledger.decrements["prod-a"])
		}
		if ledger.decrements["prod-b"] != 1 {
			t.Errorf("expected prod-b decremented by 1, got %d", ledger.decrements["prod-b"])
		}
		if len(carts.cleared) != 1 || carts.cleared[0] != "user-1" {
			t.Errorf("expected cart cleared for user-1, got %v", carts.cleared)
		}
		if _, ok := orders.statuses["order-1"]; ok {
			t.Error("reconciled order must stay pending, not be marked for review")
		}
	})

	t.Run("marks order for review when stock is still short", func(t *testing.T) {
		ledger := newFakeLedger(map[string]int{"prod-b": 0})
		orders := &fakeOrders{}
		carts := &fakeCarts{}
		handler := NewReconcileHandler(ledger, orders, carts, logger)

		event := domain.CheckoutFailedEvent{
			OrderID:    "order-2",
			UserID:     "user-1",
			FailedStep: checkout.StepStockDecremented.String(),
			Outcomes: []domain.LineOutcome{
				{ProductID: "prod-b", Quantity: 1, Decremented: false},
			},
		}

		if err := handler.Handle(context.Background(), marshalEvent(t, event)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if orders.statuses["order-2"] != domain.OrderStatusNeedsReview {
			t.Errorf("expected order-2 marked needs_review, got %q", orders.statuses["order-2"])
		}
		if len(carts.cleared) != 0 {
			t.Error("cart must not be cleared when reconciliation fails")
		}
	})

	t.Run("line creation failures go straight to review", func(t *testing.T) {
		ledger := newFakeLedger(map[string]int{"prod-a": 5})
		orders := &fakeOrders{}
		carts := &fakeCarts{}
		handler := NewReconcileHandler(ledger, orders, carts, logger)

		event := domain.CheckoutFailedEvent{
			OrderID:    "order-3",
			UserID:     "user-1",
			FailedStep: checkout.StepLinesCreated.String(),
			Outcomes: []domain.LineOutcome{
				{ProductID: "prod-a", Quantity: 2, Decremented: false},
			},
		}

		if err := handler.Handle(context.Background(), marshalEvent(t, event)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if orders.statuses["order-3"] != domain.OrderStatusNeedsReview {
			t.Errorf("expected order-3 marked needs_review, got %q", orders.statuses["order-3"])
		}
		if ledger.decrements["prod-a"] != 0 {
			t.Errorf("no decrement may run without order lines, got %d", ledger.decrements["prod-a"])
		}
	})

	t.Run("transient errors are returned for redelivery", func(t *testing.T) {
		ledger := newFakeLedger(map[string]int{"prod-a": 5})
		carts := &fakeCarts{clearErr: errors.New("connection reset")}
		handler := NewReconcileHandler(ledger, &fakeOrders{}, carts, logger)

		event := domain.CheckoutFailedEvent{
			OrderID:    "order-4",
			UserID:     "user-1",
			FailedStep: checkout.StepCartCleared.String(),
			Outcomes: []domain.LineOutcome{
				{ProductID: "prod-a", Quantity: 2, Decremented: true},
			},
		}

		if err := handler.Handle(context.Background(), marshalEvent(t, event)); err == nil {
			t.Fatal("expected error for transient failure")
		}
	})

	t.Run("rejects malformed payload", func(t *testing.T) {
		handler := NewReconcileHandler(newFakeLedger(nil), &fakeOrders{}, &fakeCarts{}, logger)

		if err := handler.Handle(context.Background(), []byte("not json")); err == nil {
			t.Fatal("expected error for malformed payload")
		}
	})
}
