package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestClampFinal(t *testing.T) {
	b := compose(decimal.NewFromInt(-10), decimal.Zero, decimal.Zero, decimal.NewFromInt(10), true)
	require.True(t, b.FinalPrice.IsNegative())

	require.True(t, clampFinal(&b))
	require.True(t, b.FinalPrice.IsZero())
	// the other figures are reported as computed
	require.True(t, b.Subtotal.Equal(decimal.NewFromInt(-10)))

	require.False(t, clampFinal(&b))
}

func TestComposeOrder(t *testing.T) {
	// discount first, then tax on the discounted amount
	b := compose(decimal.NewFromInt(200), decimal.Zero, decimal.NewFromInt(50), decimal.NewFromInt(10), true)
	require.True(t, b.DiscountedSubtotal.Equal(decimal.NewFromInt(100)))
	require.True(t, b.TaxAmount.Equal(decimal.NewFromInt(10)))
	require.True(t, b.FinalPrice.Equal(decimal.NewFromInt(110)))
}
