package pricing

import (
	"errors"
	"fmt"
)

var ErrInvalidInput = errors.New("invalid line amount")

// Config holds the pricing knobs. All monetary values are in cents, the
// tax rate is in basis points (1200 = 12%).
type Config struct {
	FreeShippingThreshold int64
	FlatShippingFee       int64
	TaxRateBasisPoints    int64
}

func DefaultConfig() Config {
	return Config{
		FreeShippingThreshold: 25000,
		FlatShippingFee:       1000,
		TaxRateBasisPoints:    1200,
	}
}

// LineAmount is one (unit price, quantity) pair from the cart.
type LineAmount struct {
	UnitPrice int64
	Quantity  int
}

type Totals struct {
	Subtotal    int64 `json:"subtotal"`
	ShippingFee int64 `json:"shipping_fee"`
	Tax         int64 `json:"tax"`
	Total       int64 `json:"total"`
}

type Calculator struct {
	cfg Config
}

func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// Calculate computes subtotal, shipping, tax and grand total for the given
// lines. Tax is rounded half-up to the nearest cent here, once; callers
// must not re-round at display time.
func (c *Calculator) Calculate(lines []LineAmount) (Totals, error) {
	var subtotal int64
	for i, line := range lines {
		if line.UnitPrice < 0 {
			return Totals{}, fmt.Errorf("%w: negative unit price at line %d", ErrInvalidInput, i)
		}
		if line.Quantity <= 0 {
			return Totals{}, fmt.Errorf("%w: non-positive quantity at line %d", ErrInvalidInput, i)
		}
		subtotal += line.UnitPrice * int64(line.Quantity)
	}

	shipping := c.cfg.FlatShippingFee
	if subtotal >= c.cfg.FreeShippingThreshold {
		shipping = 0
	}

	tax := (subtotal*c.cfg.TaxRateBasisPoints + 5000) / 10000

	return Totals{
		Subtotal:    subtotal,
		ShippingFee: shipping,
		Tax:         tax,
		Total:       subtotal + shipping + tax,
	}, nil
}
