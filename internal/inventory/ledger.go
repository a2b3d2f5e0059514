package inventory

import (
	"context"
	"database/sql"
	"errors"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductNotFound   = errors.New("product not found")
)

// Ledger owns product stock counts. Decrement is its only write.
type Ledger struct {
	db *sql.DB
}

func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) GetStock(ctx context.Context, productID string) (int, error) {
	var stock int

	err := l.db.QueryRowContext(ctx, `
		SELECT stock
		FROM products
		WHERE id = $1
	`, productID).Scan(&stock)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrProductNotFound
		}
		return 0, err
	}

	return stock, nil
}

// Decrement subtracts qty from the product's stock as a single conditional
// update. The stock floor is enforced by the WHERE clause, so two
// concurrent checkouts racing for the last unit cannot both succeed;
// stock is never observably negative.
func (l *Ledger) Decrement(ctx context.Context, productID string, qty int) (int, error) {
	var remaining int

	err := l.db.QueryRowContext(ctx, `
		UPDATE products
		SET stock = stock - $2
		WHERE id = $1 AND stock >= $2
		RETURNING stock
	`, productID, qty).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	// The update matched nothing: either the product is gone or the
	// remaining stock is below qty.
	if _, err := l.GetStock(ctx, productID); err != nil {
		return 0, err
	}

	return 0, ErrInsufficientStock
}
