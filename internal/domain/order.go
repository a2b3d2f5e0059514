package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusNeedsReview marks an order whose checkout failed partway
	// and could not be reconciled automatically.
	OrderStatusNeedsReview OrderStatus = "needs_review"
)

// Contact is the shipping/contact block captured at checkout time.
type Contact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

type Order struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Contact     Contact     `json:"contact"`
	ShippingFee int64       `json:"shipping_fee"`
	Total       int64       `json:"total"`
	Status      OrderStatus `json:"status"`
	Lines       []OrderLine `json:"lines"`
	CreatedAt   time.Time   `json:"created_at"`
}

// OrderLine is minted from a cart line at checkout; it never shares
// identity with the cart line it came from and is never mutated.
type OrderLine struct {
	ID          string `json:"id"`
	OrderID     string `json:"order_id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	LineTotal   int64  `json:"line_total"`
}
