package stats_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trademarket/backend-market/internal/domain"
	"github.com/trademarket/backend-market/internal/pricing"
	"github.com/trademarket/backend-market/internal/stats"
)

func day(d int) time.Time {
	return time.Date(2025, time.March, d, 12, 0, 0, 0, time.UTC)
}

func product(id, categoryID int64) *domain.Product {
	return &domain.Product{ID: id, CategoryID: categoryID, Name: "p", Price: 100}
}

func TestMostPopularProducts(t *testing.T) {
	lines := []domain.ReceiptLine{
		{ProductID: 1, Quantity: 2, Product: product(1, 1)},
		{ProductID: 2, Quantity: 8, Product: product(2, 1)},
		{ProductID: 3, Quantity: 1, Product: product(3, 2)},
		{ProductID: 1, Quantity: 10, Product: product(1, 1)},
	}

	top := stats.MostPopularProducts(lines, 2)
	require.Len(t, top, 2)
	require.Equal(t, int64(1), top[0].ID)
	require.Equal(t, int64(2), top[1].ID)
}

func TestMostPopularProductsTieBreaksByID(t *testing.T) {
	lines := []domain.ReceiptLine{
		{ProductID: 9, Quantity: 4, Product: product(9, 1)},
		{ProductID: 2, Quantity: 4, Product: product(2, 1)},
		{ProductID: 5, Quantity: 4, Product: product(5, 1)},
	}
	top := stats.MostPopularProducts(lines, 3)
	require.Equal(t, []int64{2, 5, 9}, []int64{top[0].ID, top[1].ID, top[2].ID})
}

func TestMostPopularProductsBounds(t *testing.T) {
	lines := []domain.ReceiptLine{{ProductID: 1, Quantity: 1, Product: product(1, 1)}}
	require.Empty(t, stats.MostPopularProducts(lines, 0))
	require.Empty(t, stats.MostPopularProducts(lines, -3))
	require.Empty(t, stats.MostPopularProducts(nil, 5))
	require.Len(t, stats.MostPopularProducts(lines, 100), 1)
}

func TestMostPopularProductsDoesNotMutateInput(t *testing.T) {
	lines := []domain.ReceiptLine{
		{ProductID: 1, Quantity: 2, Product: product(1, 1)},
		{ProductID: 1, Quantity: 3, Product: product(1, 1)},
	}
	_ = stats.MostPopularProducts(lines, 1)
	require.Equal(t, 2, lines[0].Quantity)
	require.Equal(t, 3, lines[1].Quantity)
}

func TestMostPopularProductsForCustomer(t *testing.T) {
	receipts := []domain.Receipt{
		{CustomerID: 1, Lines: []domain.ReceiptLine{
			{ProductID: 1, Quantity: 2, Product: product(1, 1)},
			{ProductID: 2, Quantity: 8, Product: product(2, 1)},
		}},
		{CustomerID: 2, Lines: []domain.ReceiptLine{
			{ProductID: 3, Quantity: 50, Product: product(3, 2)},
		}},
		{CustomerID: 1, Lines: []domain.ReceiptLine{
			{ProductID: 1, Quantity: 1, Product: product(1, 1)},
		}},
	}

	top := stats.MostPopularProductsForCustomer(receipts, 1, 5)
	require.Len(t, top, 2)
	require.Equal(t, int64(2), top[0].ID)
	require.Equal(t, int64(1), top[1].ID)

	require.Empty(t, stats.MostPopularProductsForCustomer(receipts, 42, 5))
}

func TestIncomeForCategoryInPeriod(t *testing.T) {
	receipts := []domain.Receipt{
		{OperationDate: day(1), Lines: []domain.ReceiptLine{
			{ProductID: 1, Quantity: 2, DiscountedUnitPrice: 900, Product: product(1, 1)},
			{ProductID: 3, Quantity: 1, DiscountedUnitPrice: 500, Product: product(3, 2)},
		}},
		{OperationDate: day(5), Lines: []domain.ReceiptLine{
			{ProductID: 2, Quantity: 3, DiscountedUnitPrice: 1900, Product: product(2, 1)},
		}},
		{OperationDate: day(20), Lines: []domain.ReceiptLine{
			{ProductID: 1, Quantity: 100, DiscountedUnitPrice: 900, Product: product(1, 1)},
		}},
	}

	income := stats.IncomeForCategoryInPeriod(receipts, 1, day(1), day(10))
	require.Equal(t, pricing.Money(2*900+3*1900), income)

	// Window bounds are inclusive.
	require.Equal(t, pricing.Money(1800), stats.IncomeForCategoryInPeriod(receipts, 1, day(1), day(1)))

	// No receipts in window, unknown category and reversed window all yield zero.
	require.Zero(t, stats.IncomeForCategoryInPeriod(receipts, 1, day(25), day(28)))
	require.Zero(t, stats.IncomeForCategoryInPeriod(receipts, 99, day(1), day(28)))
	require.Zero(t, stats.IncomeForCategoryInPeriod(receipts, 1, day(10), day(1)))
}

func TestMostValuableCustomers(t *testing.T) {
	alice := &domain.Customer{ID: 1, Person: domain.Person{Name: "Alice", Surname: "Reed"}}
	bob := &domain.Customer{ID: 2, Person: domain.Person{Name: "Bob", Surname: "Stone"}}
	receipts := []domain.Receipt{
		{CustomerID: 1, Customer: alice, OperationDate: day(2), Lines: []domain.ReceiptLine{
			{Quantity: 2, DiscountedUnitPrice: 1000},
		}},
		{CustomerID: 2, Customer: bob, OperationDate: day(3), Lines: []domain.ReceiptLine{
			{Quantity: 1, DiscountedUnitPrice: 5000},
		}},
		{CustomerID: 1, Customer: alice, OperationDate: day(4), Lines: []domain.ReceiptLine{
			{Quantity: 1, DiscountedUnitPrice: 4000},
		}},
		{CustomerID: 1, Customer: alice, OperationDate: day(25), Lines: []domain.ReceiptLine{
			{Quantity: 10, DiscountedUnitPrice: 9000},
		}},
	}

	top := stats.MostValuableCustomers(receipts, 10, day(1), day(10))
	require.Len(t, top, 2)
	require.Equal(t, stats.CustomerActivity{CustomerID: 1, CustomerName: "Alice Reed", Total: 6000}, top[0])
	require.Equal(t, stats.CustomerActivity{CustomerID: 2, CustomerName: "Bob Stone", Total: 5000}, top[1])

	// Returned totals never exceed the sum over all receipts in the window.
	var windowTotal pricing.Money
	for i := range receipts {
		if !receipts[i].OperationDate.After(day(10)) {
			windowTotal += pricing.ReceiptTotal(&receipts[i])
		}
	}
	var rankedTotal pricing.Money
	for _, a := range top {
		rankedTotal += a.Total
	}
	require.LessOrEqual(t, rankedTotal, windowTotal)

	require.Len(t, stats.MostValuableCustomers(receipts, 1, day(1), day(10)), 1)
	require.Empty(t, stats.MostValuableCustomers(receipts, 0, day(1), day(10)))
	require.Empty(t, stats.MostValuableCustomers(nil, 10, day(1), day(10)))
}

func TestMostValuableCustomersTieBreaksByID(t *testing.T) {
	c1 := &domain.Customer{ID: 7, Person: domain.Person{Name: "C", Surname: "Seven"}}
	c2 := &domain.Customer{ID: 3, Person: domain.Person{Name: "C", Surname: "Three"}}
	receipts := []domain.Receipt{
		{CustomerID: 7, Customer: c1, OperationDate: day(2), Lines: []domain.ReceiptLine{{Quantity: 1, DiscountedUnitPrice: 100}}},
		{CustomerID: 3, Customer: c2, OperationDate: day(2), Lines: []domain.ReceiptLine{{Quantity: 1, DiscountedUnitPrice: 100}}},
	}
	top := stats.MostValuableCustomers(receipts, 2, day(1), day(10))
	require.Equal(t, int64(3), top[0].CustomerID)
	require.Equal(t, int64(7), top[1].CustomerID)
}
