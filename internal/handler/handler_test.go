package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/cache"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/coupon"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/order"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/product"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/storage/memory"
)

func newServer(t *testing.T, products product.Repository) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	db := memory.New()

	cat := product.Category{Title: "Single Origin"}
	require.NoError(t, db.Categories().Create(ctx, &cat))
	for _, p := range []product.Product{
		{ID: 1, Title: "Promo Sample", Price: decimal.Zero, StockQuantity: 5, Origin: "Blend"},
		{ID: 2, Title: "Ethiopia Yirgacheffe", Price: decimal.NewFromInt(100), StockQuantity: 10, Origin: "Ethiopia"},
	} {
		p.CategoryID = cat.ID
		require.NoError(t, db.Products().Create(ctx, &p))
	}
	for _, c := range []coupon.Coupon{
		{Code: "TTN2024TTT001", IsActive: true},
		{Code: "8TTT8", IsActive: false},
	} {
		require.NoError(t, db.Coupons().Create(ctx, &c))
	}

	if products == nil {
		products = db.Products()
	}
	layer, err := cache.NewLayer(cache.NewLRUStore(64, time.Minute), cache.Options{})
	require.NoError(t, err)

	coupons := coupon.NewService(db.Coupons(), layer)
	orders, err := order.NewService(products, coupons.Validator(), db.Orders(), db, layer)
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewHandler(product.NewService(products, db.Categories(), layer), coupons, orders).Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestProducts(t *testing.T) {
	srv := newServer(t, nil)

	code, body := do(t, srv, http.MethodPost, "/products", `{
		"title": "Kenya AA",
		"price": 149.5,
		"stockQuantity": 7,
		"origin": "Kenya",
		"flavorNotes": ["blackcurrant"],
		"categoryId": 1
	}`)
	require.Equal(t, http.StatusCreated, code, body)
	assert.JSONEq(t, `{
		"id": 3,
		"title": "Kenya AA",
		"price": 149.5,
		"stockQuantity": 7,
		"origin": "Kenya",
		"flavorNotes": ["blackcurrant"],
		"categoryId": 1,
		"categoryTitle": "Single Origin"
	}`, body)

	code, body = do(t, srv, http.MethodPatch, "/products/3", `{"stockQuantity": 9}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Contains(t, body, `"stockQuantity":9`)

	code, body = do(t, srv, http.MethodGet, "/products/3", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"stockQuantity":9`)

	code, _ = do(t, srv, http.MethodDelete, "/products/3", "")
	assert.Equal(t, http.StatusNoContent, code)

	code, body = do(t, srv, http.MethodGet, "/products/3", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.JSONEq(t, `{"error":"product not found"}`, body)
}

func TestProducts_BadRequests(t *testing.T) {
	srv := newServer(t, nil)

	for _, tc := range []struct {
		name, method, path, body string
		code                     int
	}{
		{"MissingTitle", http.MethodPost, "/products", `{"price":1,"stockQuantity":1,"origin":"x","categoryId":1}`, 400},
		{"MissingPrice", http.MethodPut, "/products/2", `{"title":"x","stockQuantity":1,"origin":"x","categoryId":1}`, 400},
		{"EmptyBody", http.MethodPost, "/products", "", 400},
		{"Malformed", http.MethodPost, "/products", `{"title":`, 400},
		{"BadID", http.MethodGet, "/products/abc", "", 400},
		{"ZeroID", http.MethodGet, "/products/0", "", 400},
		{"UnknownCategory", http.MethodPost, "/products", `{"title":"x","price":1,"stockQuantity":1,"origin":"x","categoryId":42}`, 400},
		{"PatchMissing", http.MethodPatch, "/products/77", `{"title":"x"}`, 404},
	} {
		t.Run(tc.name, func(t *testing.T) {
			code, body := do(t, srv, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.code, code, body)
			assert.Contains(t, body, `"error"`)
		})
	}
}

func TestCategories(t *testing.T) {
	srv := newServer(t, nil)

	code, body := do(t, srv, http.MethodPost, "/categories", `{"title":"Reserve"}`)
	require.Equal(t, http.StatusCreated, code, body)
	assert.JSONEq(t, `{"id":2,"title":"Reserve"}`, body)

	code, body = do(t, srv, http.MethodGet, "/categories", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[{"id":1,"title":"Single Origin"},{"id":2,"title":"Reserve"}]`, body)

	code, _ = do(t, srv, http.MethodDelete, "/categories/2", "")
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = do(t, srv, http.MethodDelete, "/categories/2", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCoupons(t *testing.T) {
	srv := newServer(t, nil)

	code, body := do(t, srv, http.MethodPost, "/coupons", `{"code":"4TTT4"}`)
	require.Equal(t, http.StatusCreated, code, body)
	assert.JSONEq(t, `{"id":3,"code":"4TTT4","isActive":true}`, body)

	code, body = do(t, srv, http.MethodPost, "/coupons", `{"code":"4TTT4"}`)
	assert.Equal(t, http.StatusBadRequest, code, body)

	code, body = do(t, srv, http.MethodPost, "/coupons", `{"isActive":true}`)
	assert.Equal(t, http.StatusBadRequest, code, body)

	code, body = do(t, srv, http.MethodPut, "/coupons/3", `{"code":"5TTT5","isActive":false}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.JSONEq(t, `{"id":3,"code":"5TTT5","isActive":false}`, body)

	code, body = do(t, srv, http.MethodDelete, "/coupons/1", "")
	require.Equal(t, http.StatusOK, code, body)
	assert.JSONEq(t, `{"id":1,"code":"TTN2024TTT001","isActive":false}`, body)

	code, _ = do(t, srv, http.MethodGet, "/coupons/99", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, body = do(t, srv, http.MethodGet, "/coupons", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[
		{"id":1,"code":"TTN2024TTT001","isActive":false},
		{"id":2,"code":"8TTT8","isActive":false},
		{"id":3,"code":"5TTT5","isActive":false}
	]`, body)
}

func TestValidateCoupon(t *testing.T) {
	srv := newServer(t, nil)

	for _, tc := range []struct {
		name string
		code string
		want int
		body string
	}{
		{"Valid", "TTN2024TTT001", 200, `{"isValid":true,"message":"Coupon is valid.","coupon":{"id":1,"code":"TTN2024TTT001","isActive":true}}`},
		{"BadFormat", "HELLO", 400, `{"error":"Invalid coupon code format"}`},
		{"Unknown", "7TTT7", 400, `{"error":"Invalid coupon code."}`},
		{"Inactive", "8TTT8", 400, `{"error":"Coupon is not active."}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			code, body := do(t, srv, http.MethodPost, "/coupons/validate/"+tc.code, "")
			assert.Equal(t, tc.want, code)
			assert.JSONEq(t, tc.body, body)
		})
	}
}

func TestOrders(t *testing.T) {
	srv := newServer(t, nil)

	code, body := do(t, srv, http.MethodPost, "/orders", `{"cart":[{"itemId":2,"quantity":2}],"couponCode":null}`)
	require.Equal(t, http.StatusCreated, code, body)
	assert.JSONEq(t, `{
		"id": 1,
		"totalAmount": 200,
		"shippingFee": 54.99,
		"discountRate": 0,
		"discountAmount": 0,
		"netAmount": 254.99,
		"couponId": null,
		"cart": [{"itemId":2,"title":"Ethiopia Yirgacheffe","quantity":2}]
	}`, body)

	code, body = do(t, srv, http.MethodPut, "/orders/1", `{"cart":[{"productId":2,"quantity":3}]}`)
	require.Equal(t, http.StatusOK, code, body)
	assert.Contains(t, body, `"totalAmount":300.00`)

	code, body = do(t, srv, http.MethodGet, "/products/2", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"stockQuantity":7`)

	code, body = do(t, srv, http.MethodGet, "/orders", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"totalAmount":300.00`)

	code, _ = do(t, srv, http.MethodDelete, "/orders/1", "")
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = do(t, srv, http.MethodGet, "/orders/1", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, body = do(t, srv, http.MethodGet, "/products/2", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"stockQuantity":10`)
}

func TestCreateOrder_Rejected(t *testing.T) {
	srv := newServer(t, nil)

	for _, tc := range []struct {
		name, body string
	}{
		{"NoCart", `{}`},
		{"EmptyCart", `{"cart":[]}`},
		{"NoQuantity", `{"cart":[{"itemId":2}]}`},
		{"ZeroQuantity", `{"cart":[{"itemId":2,"quantity":0}]}`},
		{"PromoItem", `{"cart":[{"itemId":1,"quantity":1}]}`},
		{"UnknownProduct", `{"cart":[{"itemId":9,"quantity":1}]}`},
		{"NoStock", `{"cart":[{"itemId":2,"quantity":11}]}`},
		{"InactiveCoupon", `{"cart":[{"itemId":2,"quantity":1}],"couponCode":"8TTT8"}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			code, body := do(t, srv, http.MethodPost, "/orders", tc.body)
			assert.Equal(t, http.StatusBadRequest, code, body)
			assert.Contains(t, body, `"error"`)
		})
	}

	code, body := do(t, srv, http.MethodPut, "/orders/5", `{"cart":[{"itemId":2,"quantity":1}]}`)
	assert.Equal(t, http.StatusNotFound, code, body)
}

type brokenProducts struct {
	product.Repository
}

func (brokenProducts) List(context.Context) ([]product.Product, error) {
	return nil, errors.New("connection refused")
}

func TestInternalErrorsAreHidden(t *testing.T) {
	srv := newServer(t, brokenProducts{})

	code, body := do(t, srv, http.MethodGet, "/products", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, body)
}
