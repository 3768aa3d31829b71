package receipt_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trademarket/backend-market/internal/common"
	"github.com/trademarket/backend-market/internal/domain"
	"github.com/trademarket/backend-market/internal/events"
	"github.com/trademarket/backend-market/internal/receipt"
	"github.com/trademarket/backend-market/internal/store/memory"
)

type fixture struct {
	st  *memory.Store
	svc *receipt.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	svc := &receipt.Service{
		Q:      st,
		Events: &events.Bus{Store: st},
		Now:    func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
	return &fixture{st: st, svc: svc}
}

func (f *fixture) seedCustomer(t *testing.T, discount int) domain.Customer {
	t.Helper()
	c, err := f.st.CreateCustomer(context.Background(), domain.Customer{
		Discount: discount,
		Person: domain.Person{
			Name:      "Ada",
			Surname:   "Lovelace",
			BirthDate: time.Date(1990, 5, 20, 0, 0, 0, 0, time.UTC),
		},
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) seedProduct(t *testing.T, name string, price domain.Money) domain.Product {
	t.Helper()
	cat, err := f.st.CreateCategory(context.Background(), domain.Category{Name: "general"})
	require.NoError(t, err)
	p, err := f.st.CreateProduct(context.Background(), domain.Product{CategoryID: cat.ID, Name: name, Price: price})
	require.NoError(t, err)
	return p
}

func requireValidation(t *testing.T, err error) {
	t.Helper()
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeValidation, appErr.Code)
}

func TestCreateRequiresExistingCustomer(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), 999, time.Time{})
	require.True(t, common.IsNotFound(err))
}

func TestCreateDefaultsOperationDateAndEmitsEvent(t *testing.T) {
	f := newFixture(t)
	c := f.seedCustomer(t, 0)

	created, err := f.svc.Create(context.Background(), c.ID, time.Time{})
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), created.OperationDate)

	evts := f.st.Events()
	require.Len(t, evts, 1)
	require.Equal(t, receipt.TopicCreated, evts[0].Topic)
	require.Equal(t, created.ID, evts[0].AggregateID)
}

func TestAddProductPricesLineWithCustomerDiscount(t *testing.T) {
	f := newFixture(t)
	c := f.seedCustomer(t, 15)
	p := f.seedProduct(t, "coffee", 1800)
	r, err := f.svc.Create(context.Background(), c.ID, time.Time{})
	require.NoError(t, err)

	line, err := f.svc.AddProduct(context.Background(), r.ID, p.ID, 2)
	require.NoError(t, err)
	require.Equal(t, 2, line.Quantity)
	require.Equal(t, domain.Money(1800), line.UnitPrice)
	require.Equal(t, domain.Money(1530), line.DiscountedUnitPrice)

	total, err := f.svc.Sum(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, domain.Money(3060), total)
}

func TestAddProductMergeKeepsFrozenPrices(t *testing.T) {
	f := newFixture(t)
	c := f.seedCustomer(t, 10)
	p := f.seedProduct(t, "tea", 1000)
	r, err := f.svc.Create(context.Background(), c.ID, time.Time{})
	require.NoError(t, err)

	first, err := f.svc.AddProduct(context.Background(), r.ID, p.ID, 1)
	require.NoError(t, err)
	require.Equal(t, domain.Money(900), first.DiscountedUnitPrice)

	// Catalog price and customer discount changes must not reprice the line.
	p.Price = 5000
	require.NoError(t, f.st.UpdateProduct(context.Background(), p))
	c.Discount = 50
	require.NoError(t, f.st.UpdateCustomer(context.Background(), c))

	merged, err := f.svc.AddProduct(context.Background(), r.ID, p.ID, 3)
	require.NoError(t, err)
	require.Equal(t, first.ID, merged.ID)
	require.Equal(t, 4, merged.Quantity)
	require.Equal(t, domain.Money(1000), merged.UnitPrice)
	require.Equal(t, domain.Money(900), merged.DiscountedUnitPrice)

	lines, err := f.svc.Lines(context.Background(), r.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, 4, lines[0].Quantity)
}

func TestAddProductUnknownTargets(t *testing.T) {
	f := newFixture(t)
	c := f.seedCustomer(t, 0)
	p := f.seedProduct(t, "milk", 500)
	r, err := f.svc.Create(context.Background(), c.ID, time.Time{})
	require.NoError(t, err)

	_, err = f.svc.AddProduct(context.Background(), r.ID, p.ID+100, 1)
	require.True(t, common.IsNotFound(err))

	_, err = f.svc.AddProduct(context.Background(), r.ID+100, p.ID, 1)
	require.True(t, common.IsNotFound(err))

	_, err = f.svc.AddProduct(context.Background(), r.ID, p.ID, 0)
	requireValidation(t, err)
}

func TestAddProductRejectedAfterCheckout(t *testing.T) {
	f := newFixture(t)
	c := f.seedCustomer(t, 0)
	p := f.seedProduct(t, "bread", 300)
	r, err := f.svc.Create(context.Background(), c.ID, time.Time{})
	require.NoError(t, err)
	_, err = f.svc.AddProduct(context.Background(), r.ID, p.ID, 1)
	require.NoError(t, err)

	require.NoError(t, f.svc.CheckOut(context.Background(), r.ID))

	_, err = f.svc.AddProduct(context.Background(), r.ID, p.ID, 1)
	requireValidation(t, err)

	err = f.svc.RemoveProduct(context.Background(), r.ID, p.ID, 1)
	requireValidation(t, err)
}

func TestRemoveProductDecrementsThenDeletes(t *testing.T) {
	f := newFixture(t)
	c := f.seedCustomer(t, 0)
	p := f.seedProduct(t, "eggs", 700)
	r, err := f.svc.Create(context.Background(), c.ID, time.Time{})
	require.NoError(t, err)
	_, err = f.svc.AddProduct(context.Background(), r.ID, p.ID, 5)
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveProduct(context.Background(), r.ID, p.ID, 2))
	lines, err := f.svc.Lines(context.Background(), r.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, 3, lines[0].Quantity)

	// Removing at least the remaining quantity deletes the line.
	require.NoError(t, f.svc.RemoveProduct(context.Background(), r.ID, p.ID, 10))
	lines, err = f.svc.Lines(context.Background(), r.ID)
	require.NoError(t, err)
	require.Empty(t, lines)
}

func TestRemoveProductMissingLine(t *testing.T) {
	f := newFixture(t)
	c := f.seedCustomer(t, 0)
	p := f.seedProduct(t, "salt", 100)
	r, err := f.svc.Create(context.Background(), c.ID, time.Time{})
	require.NoError(t, err)

	err = f.svc.RemoveProduct(context.Background(), r.ID, p.ID, 1)
	require.True(t, common.IsNotFound(err))
}

func TestCheckOutEmitsEventAndIsFinal(t *testing.T) {
	f := newFixture(t)
	c := f.seedCustomer(t, 20)
	p := f.seedProduct(t, "wine", 10000)
	r, err := f.svc.Create(context.Background(), c.ID, time.Time{})
	require.NoError(t, err)
	_, err = f.svc.AddProduct(context.Background(), r.ID, p.ID, 2)
	require.NoError(t, err)

	require.NoError(t, f.svc.CheckOut(context.Background(), r.ID))

	got, err := f.svc.Get(context.Background(), r.ID)
	require.NoError(t, err)
	require.True(t, got.IsCheckedOut)

	evts := f.st.Events()
	var checkout *memory.Event
	for i := range evts {
		if evts[i].Topic == receipt.TopicCheckedOut {
			checkout = &evts[i]
		}
	}
	require.NotNil(t, checkout)
	require.Equal(t, r.ID, checkout.AggregateID)
	require.JSONEq(t, `{"toPay":16000}`, string(checkout.Payload))

	err = f.svc.CheckOut(context.Background(), r.ID)
	requireValidation(t, err)
}

func TestByPeriodInclusive(t *testing.T) {
	f := newFixture(t)
	c := f.seedCustomer(t, 0)

	dates := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range dates {
		_, err := f.svc.Create(context.Background(), c.ID, d)
		require.NoError(t, err)
	}

	got, err := f.svc.ByPeriod(context.Background(),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Reversed window matches nothing.
	got, err = f.svc.ByPeriod(context.Background(),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestDeleteCascadesLines(t *testing.T) {
	f := newFixture(t)
	c := f.seedCustomer(t, 0)
	p := f.seedProduct(t, "sugar", 200)
	r, err := f.svc.Create(context.Background(), c.ID, time.Time{})
	require.NoError(t, err)
	_, err = f.svc.AddProduct(context.Background(), r.ID, p.ID, 1)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), r.ID))

	_, err = f.svc.Get(context.Background(), r.ID)
	require.True(t, common.IsNotFound(err))

	lines, err := f.st.ListReceiptLines(context.Background())
	require.NoError(t, err)
	require.Empty(t, lines)
}

func TestUpdateRewritesHeader(t *testing.T) {
	f := newFixture(t)
	c := f.seedCustomer(t, 0)
	other := f.seedCustomer(t, 5)
	r, err := f.svc.Create(context.Background(), c.ID, time.Time{})
	require.NoError(t, err)

	newDate := time.Date(2024, 4, 2, 9, 30, 0, 0, time.UTC)
	err = f.svc.Update(context.Background(), domain.Receipt{ID: r.ID, CustomerID: other.ID, OperationDate: newDate})
	require.NoError(t, err)

	got, err := f.svc.Get(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, other.ID, got.CustomerID)
	require.Equal(t, newDate, got.OperationDate)
}
