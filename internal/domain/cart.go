package domain

import "time"

// CartLine is one pending purchase in a user's cart. ProductName and
// UnitPrice are snapshots taken when the line was added; they may drift
// from the catalog's current values and are deliberately kept, because
// order lines must reflect the price the customer was shown.
type CartLine struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	UnitPrice   int64     `json:"unit_price"`
	Quantity    int       `json:"quantity"`
	CreatedAt   time.Time `json:"created_at"`
}
