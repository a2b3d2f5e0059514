package checkout

import (
	"context"
	"fmt"

	"github.com/rmcampos/storefront/internal/domain"
)

// StockReader is the ledger read used for the availability check.
type StockReader interface {
	GetStock(ctx context.Context, productID string) (int, error)
}

// Validator checks that every cart line can currently be satisfied, based
// on a fresh ledger read taken at call time. The check is advisory only:
// the read and the later decrement are separate operations, so a pass here
// does not guarantee the decrement will succeed under concurrent
// checkouts. The conditional decrement is what actually protects stock.
type Validator struct {
	stock StockReader
}

func NewValidator(stock StockReader) *Validator {
	return &Validator{stock: stock}
}

// Check returns the list of shortfalls, empty when every line is
// satisfiable. A missing product is an error, not a shortfall.
func (v *Validator) Check(ctx context.Context, lines []domain.CartLine) ([]Shortfall, error) {
	var shortfalls []Shortfall

	for _, line := range lines {
		available, err := v.stock.GetStock(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("read stock for product %s: %w", line.ProductID, err)
		}

		if available < line.Quantity {
			shortfalls = append(shortfalls, Shortfall{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Available: available,
			})
		}
	}

	return shortfalls, nil
}
