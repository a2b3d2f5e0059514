package checkout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmcampos/storefront/internal/domain"
	"github.com/rmcampos/storefront/internal/inventory"
)

func TestValidatorCheck(t *testing.T) {
	lines := []domain.CartLine{
		{ProductID: "prod-a", Quantity: 2},
		{ProductID: "prod-b", Quantity: 5},
	}

	t.Run("all sufficient", func(t *testing.T) {
		v := NewValidator(newFakeLedger(map[string]int{"prod-a": 2, "prod-b": 5}))

		shortfalls, err := v.Check(context.Background(), lines)

		require.NoError(t, err)
		assert.Empty(t, shortfalls)
	})

	t.Run("lists every shortfall", func(t *testing.T) {
		v := NewValidator(newFakeLedger(map[string]int{"prod-a": 1, "prod-b": 3}))

		shortfalls, err := v.Check(context.Background(), lines)

		require.NoError(t, err)
		assert.Equal(t, []Shortfall{
			{ProductID: "prod-a", Requested: 2, Available: 1},
			{ProductID: "prod-b", Requested: 5, Available: 3},
		}, shortfalls)
	})

	t.Run("missing product is an error", func(t *testing.T) {
		v := NewValidator(newFakeLedger(map[string]int{"prod-a": 2}))

		_, err := v.Check(context.Background(), lines)

		assert.ErrorIs(t, err, inventory.ErrProductNotFound)
	})

	t.Run("idempotent on an unchanged ledger", func(t *testing.T) {
		v := NewValidator(newFakeLedger(map[string]int{"prod-a": 1, "prod-b": 3}))

		first, err := v.Check(context.Background(), lines)
		require.NoError(t, err)
		second, err := v.Check(context.Background(), lines)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})
}
