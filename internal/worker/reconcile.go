package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rmcampos/storefront/internal/checkout"
	"github.com/rmcampos/storefront/internal/domain"
	"github.com/rmcampos/storefront/internal/inventory"
)

type StockLedger interface {
	Decrement(ctx context.Context, productID string, qty int) (int, error)
}

type OrderStatusWriter interface {
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
}

type CartClearer interface {
	Clear(ctx context.Context, userID string) error
}

// ReconcileHandler consumes checkout.failed events. It retries the
// decrements the saga never applied, exactly once; if the order can be
// brought into a consistent state the user's cart is cleared and the order
// stays pending, otherwise the order is marked needs_review for manual
// handling. It never compensates writes that already happened.
type ReconcileHandler struct {
	ledger StockLedger
	orders OrderStatusWriter
	carts  CartClearer
	logger *slog.Logger
}

func NewReconcileHandler(ledger StockLedger, orders OrderStatusWriter, carts CartClearer, logger *slog.Logger) *ReconcileHandler {
	return &ReconcileHandler{
		ledger: ledger,
		orders: orders,
		carts:  carts,
		logger: logger,
	}
}

func (h *ReconcileHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.CheckoutFailedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal checkout failed event: %w", err)
	}

	h.logger.Info("reconciling failed checkout",
		"order_id", event.OrderID, "failed_step", event.FailedStep)

	// A failure while creating the order lines leaves the order without
	// its lines; there is nothing safe to complete automatically.
	if event.FailedStep == checkout.StepLinesCreated.String() {
		return h.markForReview(ctx, event)
	}

	for _, outcome := range event.Outcomes {
		if outcome.Decremented {
			continue
		}

		if _, err := h.ledger.Decrement(ctx, outcome.ProductID, outcome.Quantity); err != nil {
			if errors.Is(err, inventory.ErrInsufficientStock) || errors.Is(err, inventory.ErrProductNotFound) {
				h.logger.Warn("cannot complete decrement",
					"order_id", event.OrderID, "product_id", outcome.ProductID, "error", err)
				return h.markForReview(ctx, event)
			}
			return fmt.Errorf("decrement stock for product %s: %w", outcome.ProductID, err)
		}
	}

	if err := h.carts.Clear(ctx, event.UserID); err != nil {
		return fmt.Errorf("clear cart for user %s: %w", event.UserID, err)
	}

	h.logger.Info("checkout reconciled", "order_id", event.OrderID)
	return nil
}

func (h *ReconcileHandler) markForReview(ctx context.Context, event domain.CheckoutFailedEvent) error {
	order, err := h.orders.UpdateStatus(ctx, event.OrderID, domain.OrderStatusNeedsReview)
	if err != nil {
		return fmt.Errorf("mark order %s for review: %w", event.OrderID, err)
	}
	if order == nil {
		return fmt.Errorf("order %s not found while marking for review", event.OrderID)
	}

	h.logger.Warn("order marked for manual review", "order_id", event.OrderID, "failed_step", event.FailedStep)
	return nil
}
