package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/db"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/order"
)

func TestEmbeddedCatalogue(t *testing.T) {
	products, err := parseProducts(db.Products)
	require.NoError(t, err)
	require.NotEmpty(t, products)

	assert.Equal(t, order.PromotionalProductID, products[0].ID)
	assert.True(t, products[0].Price.IsZero())

	seen := map[int64]bool{}
	for _, p := range products {
		assert.False(t, seen[p.ID], "duplicate id %d", p.ID)
		seen[p.ID] = true
		assert.NotEmpty(t, p.Title)
		assert.NotEmpty(t, p.Origin)
		assert.NotEmpty(t, p.CategoryTitle)
	}
}

func TestAssignCategories(t *testing.T) {
	products, err := parseProducts([]byte(`[
		{"id": 1, "title": "A", "price": 1, "origin": "X", "category_title": "Blends"},
		{"id": 2, "title": "B", "price": "2.50", "origin": "Y", "category_title": "Reserve"},
		{"id": 3, "title": "C", "price": 3, "origin": "Z", "category_title": "Blends", "extra": true}
	]`))
	require.NoError(t, err)

	cats := assignCategories(products)
	require.Len(t, cats, 2)
	assert.Equal(t, "Blends", cats[0].Title)
	assert.Equal(t, int64(1), cats[0].ID)
	assert.Equal(t, "Reserve", cats[1].Title)

	assert.Equal(t, int64(1), products[0].CategoryID)
	assert.Equal(t, int64(2), products[1].CategoryID)
	assert.Equal(t, int64(1), products[2].CategoryID)
	assert.Equal(t, "2.5", products[1].Price.String())
}

func TestParseProductsRequiresID(t *testing.T) {
	_, err := parseProducts([]byte(`[{"title": "nameless"}]`))
	require.Error(t, err)
}
