package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrEmptyCart        = errors.New("cart is empty, nothing to checkout")
)

// Shortfall is one product the cart requests more of than is in stock.
type Shortfall struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// StockShortfallError aborts a checkout before any write happens.
type StockShortfallError struct {
	Shortfalls []Shortfall
}

func (e *StockShortfallError) Error() string {
	return fmt.Sprintf("insufficient stock for %d product(s)", len(e.Shortfalls))
}

// StepError reports the step at which a checkout failed. OrderID is set
// once the order header exists; together with Step it tells the caller
// whether committed writes were left behind.
type StepError struct {
	Step    Step
	OrderID string
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("checkout failed at %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Partial reports whether the failure left the system with committed
// writes that were not rolled back.
func (e *StepError) Partial() bool {
	return e.OrderID != "" && e.Step.irreversible()
}
