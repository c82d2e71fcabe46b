package product_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/cache"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/apperr"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/order"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/product"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/storage/memory"
)

func newService(t *testing.T) (*product.Service, *memory.DB) {
	t.Helper()
	layer, err := cache.NewLayer(cache.NewLRUStore(64, time.Minute), cache.Options{})
	require.NoError(t, err)
	db := memory.New()
	return product.NewService(db.Products(), db.Categories(), layer), db
}

func input(categoryID int64) product.Input {
	return product.Input{
		Title:         "Colombia Huila",
		Price:         decimal.RequireFromString("365.00"),
		StockQuantity: 12,
		Origin:        "Colombia",
		RoastLevel:    "Medium",
		FlavorNotes:   []string{"apple", "panela"},
		CategoryID:    categoryID,
	}
}

func TestService_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	cat, err := svc.CreateCategory(ctx, "  Single Origin ")
	require.NoError(t, err)
	assert.Equal(t, "Single Origin", cat.Title)

	p, err := svc.Create(ctx, input(cat.ID))
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, "Single Origin", p.CategoryTitle)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Title, got.Title)
	assert.True(t, p.Price.Equal(got.Price))
	assert.Equal(t, []string{"apple", "panela"}, got.FlavorNotes)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestService_CreateValidates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	cat, err := svc.CreateCategory(ctx, "Blends")
	require.NoError(t, err)

	for _, tc := range []struct {
		name   string
		mutate func(*product.Input)
	}{
		{name: "NoTitle", mutate: func(in *product.Input) { in.Title = " " }},
		{name: "NoOrigin", mutate: func(in *product.Input) { in.Origin = "" }},
		{name: "NegativePrice", mutate: func(in *product.Input) { in.Price = decimal.NewFromInt(-1) }},
		{name: "NegativeStock", mutate: func(in *product.Input) { in.StockQuantity = -1 }},
		{name: "UnknownCategory", mutate: func(in *product.Input) { in.CategoryID = 99 }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			in := input(cat.ID)
			tc.mutate(&in)
			_, err := svc.Create(ctx, in)
			require.Error(t, err)
			assert.Equal(t, apperr.Validation, apperr.KindOf(err))
		})
	}
}

func TestService_PatchEvictsCachedReads(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	cat, err := svc.CreateCategory(ctx, "Blends")
	require.NoError(t, err)
	p, err := svc.Create(ctx, input(cat.ID))
	require.NoError(t, err)

	_, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)
	_, err = svc.List(ctx)
	require.NoError(t, err)

	price := decimal.RequireFromString("399.90")
	_, err = svc.Patch(ctx, p.ID, product.Patch{Price: &price})
	require.NoError(t, err)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "399.9", got.Price.String())
	assert.Equal(t, "Colombia Huila", got.Title)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "399.9", all[0].Price.String())
}

func TestService_Replace(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	cat, err := svc.CreateCategory(ctx, "Blends")
	require.NoError(t, err)
	p, err := svc.Create(ctx, input(cat.ID))
	require.NoError(t, err)

	in := input(cat.ID)
	in.Title = "House Blend"
	in.RoastLevel = ""
	in.FlavorNotes = nil
	got, err := svc.Replace(ctx, p.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "House Blend", got.Title)
	assert.Empty(t, got.RoastLevel)
	assert.Empty(t, got.FlavorNotes)

	_, err = svc.Replace(ctx, 404, in)
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestService_DeleteReferencedProduct(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t)
	cat, err := svc.CreateCategory(ctx, "Blends")
	require.NoError(t, err)
	p, err := svc.Create(ctx, input(cat.ID))
	require.NoError(t, err)

	o := &order.Order{}
	require.NoError(t, db.Orders().Create(ctx, o))
	require.NoError(t, db.Orders().AddItem(ctx, &order.CartItem{OrderID: o.ID, ProductID: p.ID, Quantity: 1}))

	err = svc.Delete(ctx, p.ID)
	require.ErrorIs(t, err, product.ErrInUse)
	assert.Equal(t, apperr.BusinessRule, apperr.KindOf(err))

	err = svc.DeleteCategory(ctx, cat.ID)
	require.ErrorIs(t, err, product.ErrInUse)
}

func TestService_DeleteCategoryEvictsItsProducts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	cat, err := svc.CreateCategory(ctx, "Seasonal")
	require.NoError(t, err)
	p, err := svc.Create(ctx, input(cat.ID))
	require.NoError(t, err)

	_, err = svc.Get(ctx, p.ID)
	require.NoError(t, err)
	cats, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)

	require.NoError(t, svc.DeleteCategory(ctx, cat.ID))

	_, err = svc.Get(ctx, p.ID)
	require.ErrorIs(t, err, product.ErrNotFound)
	cats, err = svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats)

	err = svc.DeleteCategory(ctx, cat.ID)
	require.ErrorIs(t, err, product.ErrCategoryNotFound)
}

func TestService_TitleChangeEvictsOrderList(t *testing.T) {
	ctx := context.Background()
	store := cache.NewLRUStore(64, time.Minute)
	layer, err := cache.NewLayer(store, cache.Options{})
	require.NoError(t, err)
	db := memory.New()
	svc := product.NewService(db.Products(), db.Categories(), layer)

	cat, err := svc.CreateCategory(ctx, "Blends")
	require.NoError(t, err)
	p, err := svc.Create(ctx, input(cat.ID))
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, cache.OrdersKey, []byte(`[]`)))
	price := decimal.RequireFromString("380")
	_, err = svc.Patch(ctx, p.ID, product.Patch{Price: &price})
	require.NoError(t, err)
	_, err = store.Get(ctx, cache.OrdersKey)
	require.NoError(t, err)

	title := "Colombia Huila Washed"
	_, err = svc.Patch(ctx, p.ID, product.Patch{Title: &title})
	require.NoError(t, err)
	_, err = store.Get(ctx, cache.OrdersKey)
	require.ErrorIs(t, err, cache.ErrMiss)
}
