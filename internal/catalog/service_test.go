package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trademarket/backend-market/internal/catalog"
	"github.com/trademarket/backend-market/internal/common"
	"github.com/trademarket/backend-market/internal/domain"
	"github.com/trademarket/backend-market/internal/store"
	"github.com/trademarket/backend-market/internal/store/memory"
)

func newService() (*catalog.Service, *memory.Store) {
	st := memory.New()
	return &catalog.Service{Q: st}, st
}

func seedCategory(t *testing.T, svc *catalog.Service, name string) domain.Category {
	t.Helper()
	c, err := svc.CreateCategory(context.Background(), domain.Category{Name: name})
	require.NoError(t, err)
	return c
}

func TestCreateProductValidation(t *testing.T) {
	svc, _ := newService()
	cat := seedCategory(t, svc, "drinks")

	cases := []struct {
		name    string
		product domain.Product
	}{
		{"empty name", domain.Product{CategoryID: cat.ID, Name: "  ", Price: 100}},
		{"zero price", domain.Product{CategoryID: cat.ID, Name: "water", Price: 0}},
		{"negative price", domain.Product{CategoryID: cat.ID, Name: "water", Price: -5}},
		{"missing category", domain.Product{Name: "water", Price: 100}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateProduct(context.Background(), tc.product)
			var appErr *common.AppError
			require.ErrorAs(t, err, &appErr)
			require.Equal(t, common.CodeValidation, appErr.Code)
		})
	}
}

func TestCreateProductRequiresExistingCategory(t *testing.T) {
	svc, _ := newService()
	_, err := svc.CreateProduct(context.Background(), domain.Product{CategoryID: 42, Name: "water", Price: 100})
	require.True(t, common.IsNotFound(err))
}

func TestProductLifecycle(t *testing.T) {
	svc, _ := newService()
	cat := seedCategory(t, svc, "drinks")

	created, err := svc.CreateProduct(context.Background(), domain.Product{CategoryID: cat.ID, Name: "water", Price: 150})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	created.Price = 175
	require.NoError(t, svc.UpdateProduct(context.Background(), created))

	got, err := svc.GetProduct(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, domain.Money(175), got.Price)

	require.NoError(t, svc.DeleteProduct(context.Background(), created.ID))
	_, err = svc.GetProduct(context.Background(), created.ID)
	require.True(t, common.IsNotFound(err))
}

func TestListProductsFiltered(t *testing.T) {
	svc, _ := newService()
	drinks := seedCategory(t, svc, "drinks")
	snacks := seedCategory(t, svc, "snacks")

	mustCreate := func(catID int64, name string, price domain.Money) {
		_, err := svc.CreateProduct(context.Background(), domain.Product{CategoryID: catID, Name: name, Price: price})
		require.NoError(t, err)
	}
	mustCreate(drinks.ID, "water", 100)
	mustCreate(drinks.ID, "juice", 350)
	mustCreate(snacks.ID, "chips", 250)

	all, err := svc.ListProducts(context.Background(), store.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	onlyDrinks, err := svc.ListProducts(context.Background(), store.ProductFilter{CategoryID: &drinks.ID})
	require.NoError(t, err)
	require.Len(t, onlyDrinks, 2)

	min := domain.Money(200)
	max := domain.Money(300)
	mid, err := svc.ListProducts(context.Background(), store.ProductFilter{MinPrice: &min, MaxPrice: &max})
	require.NoError(t, err)
	require.Len(t, mid, 1)
	require.Equal(t, "chips", mid[0].Name)
}

func TestCategoryLifecycle(t *testing.T) {
	svc, _ := newService()

	_, err := svc.CreateCategory(context.Background(), domain.Category{Name: " "})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeValidation, appErr.Code)

	created := seedCategory(t, svc, "dairy")
	created.Name = "dairy & eggs"
	require.NoError(t, svc.UpdateCategory(context.Background(), created))

	got, err := svc.GetCategory(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, "dairy & eggs", got.Name)

	require.NoError(t, svc.DeleteCategory(context.Background(), created.ID))
	_, err = svc.GetCategory(context.Background(), created.ID)
	require.True(t, common.IsNotFound(err))
}
