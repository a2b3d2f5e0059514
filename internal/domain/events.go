package domain

import "time"

// OrderPlacedEvent is published after a fully successful checkout.
type OrderPlacedEvent struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Total     int64     `json:"total"`
	LineCount int       `json:"line_count"`
	Timestamp time.Time `json:"timestamp"`
}

// LineOutcome records whether the stock decrement for one order line was
// applied before the checkout stopped.
type LineOutcome struct {
	ProductID   string `json:"product_id"`
	Quantity    int    `json:"quantity"`
	Decremented bool   `json:"decremented"`
}

// CheckoutFailedEvent is published when a checkout fails after the order
// header was created. It carries everything the reconciler needs to finish
// the missing decrements or flag the order for manual review.
type CheckoutFailedEvent struct {
	OrderID    string        `json:"order_id"`
	UserID     string        `json:"user_id"`
	FailedStep string        `json:"failed_step"`
	Outcomes   []LineOutcome `json:"outcomes"`
	Timestamp  time.Time     `json:"timestamp"`
}
