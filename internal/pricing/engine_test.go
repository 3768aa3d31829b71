package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trademarket/backend-market/internal/domain"
	"github.com/trademarket/backend-market/internal/pricing"
)

func TestDiscountedUnitPrice(t *testing.T) {
	cases := []struct {
		name      string
		unitPrice pricing.Money
		discount  int
		want      pricing.Money
	}{
		{"no discount", 1800, 0, 1800},
		{"fifteen percent of 18.00", 1800, 15, 1530},
		{"full discount", 1800, 100, 0},
		{"truncates to minor units", 999, 33, 669},
		{"free product stays free", 0, 40, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, pricing.DiscountedUnitPrice(tc.unitPrice, tc.discount))
		})
	}
}

func TestAddLineCreatesSnapshot(t *testing.T) {
	receipt := &domain.Receipt{ID: 7}
	product := domain.Product{ID: 3, Price: 1800}

	line, merged := pricing.AddLine(receipt, product, 2, 15)
	require.False(t, merged)
	require.Equal(t, int64(3), line.ProductID)
	require.Equal(t, 2, line.Quantity)
	require.Equal(t, pricing.Money(1800), line.UnitPrice)
	require.Equal(t, pricing.Money(1530), line.DiscountedUnitPrice)
	require.Len(t, receipt.Lines, 1)
}

func TestAddLineMergesQuantityKeepingFirstPrice(t *testing.T) {
	receipt := &domain.Receipt{ID: 7}
	product := domain.Product{ID: 3, Price: 1800}

	_, merged := pricing.AddLine(receipt, product, 2, 15)
	require.False(t, merged)

	// Catalog price and discount both changed since the first add.
	product.Price = 2500
	line, merged := pricing.AddLine(receipt, product, 5, 50)
	require.True(t, merged)
	require.Equal(t, 7, line.Quantity)
	require.Equal(t, pricing.Money(1800), line.UnitPrice)
	require.Equal(t, pricing.Money(1530), line.DiscountedUnitPrice)
	require.Len(t, receipt.Lines, 1)
}

func TestRemoveQuantityDecrements(t *testing.T) {
	receipt := &domain.Receipt{
		Lines: []domain.ReceiptLine{
			{ID: 1, ProductID: 3, Quantity: 5, UnitPrice: 100, DiscountedUnitPrice: 90},
			{ID: 2, ProductID: 4, Quantity: 1, UnitPrice: 200, DiscountedUnitPrice: 200},
		},
	}
	updated, removed := pricing.RemoveQuantity(receipt, 3, 2)
	require.Len(t, updated, 1)
	require.Equal(t, 3, updated[0].Quantity)
	require.Empty(t, removed)
	require.Len(t, receipt.Lines, 2)
}

func TestRemoveQuantityDeletesDrainedLine(t *testing.T) {
	receipt := &domain.Receipt{
		Lines: []domain.ReceiptLine{
			{ID: 1, ProductID: 3, Quantity: 5},
			{ID: 2, ProductID: 4, Quantity: 1},
		},
	}
	updated, removed := pricing.RemoveQuantity(receipt, 3, 5)
	require.Empty(t, updated)
	require.Equal(t, []int64{1}, removed)
	require.Len(t, receipt.Lines, 1)
	require.Equal(t, int64(4), receipt.Lines[0].ProductID)

	// Removing more than remains behaves the same as removing exactly.
	updated, removed = pricing.RemoveQuantity(receipt, 4, 10)
	require.Empty(t, updated)
	require.Equal(t, []int64{2}, removed)
	require.Empty(t, receipt.Lines)
}

func TestReceiptTotal(t *testing.T) {
	receipt := &domain.Receipt{
		Lines: []domain.ReceiptLine{
			{UnitPrice: 1000, DiscountedUnitPrice: 900, Quantity: 2},
			{UnitPrice: 2000, DiscountedUnitPrice: 1900, Quantity: 3},
			{UnitPrice: 2500, DiscountedUnitPrice: 2400, Quantity: 1},
		},
	}
	require.Equal(t, pricing.Money(9900), pricing.ReceiptTotal(receipt))

	// Sum is invariant under line order.
	reversed := &domain.Receipt{Lines: []domain.ReceiptLine{receipt.Lines[2], receipt.Lines[0], receipt.Lines[1]}}
	require.Equal(t, pricing.ReceiptTotal(receipt), pricing.ReceiptTotal(reversed))
}

func TestReceiptTotalEmpty(t *testing.T) {
	require.Equal(t, pricing.Money(0), pricing.ReceiptTotal(&domain.Receipt{}))
}
