package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awmbw/live-mart/internal/geo"
	"github.com/awmbw/live-mart/internal/products"
)

func f(v float64) *float64 { return &v }
func s(v string) *string   { return &v }

func TestNewConfRequiresStores(t *testing.T) {
	_, err := NewConf(nil, nil, nil)
	assert.Error(t, err)
}

func TestBuildProductQueryNoFilters(t *testing.T) {
	query, args, err := buildProductQuery(Filter{}).ToSql()
	require.NoError(t, err)
	assert.Empty(t, args)
	assert.Contains(t, query, "FROM products p")
	assert.Contains(t, query, "AVG(f.rating)")
	assert.NotContains(t, query, "WHERE")
}

func TestBuildProductQueryConjunctiveFilters(t *testing.T) {
	query, args, err := buildProductQuery(Filter{
		Query:      "rice",
		CategoryID: "1",
		MinPrice:   f(50),
		MaxPrice:   f(500),
		InStock:    true,
		IsLocal:    true,
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "p.name ILIKE $")
	assert.Contains(t, query, "p.description ILIKE $")
	assert.Contains(t, query, "p.category_id =")
	assert.Contains(t, query, "p.price >=")
	assert.Contains(t, query, "p.price <=")
	assert.Contains(t, query, "p.stock >")
	assert.Contains(t, query, "p.is_local_product =")
	assert.Contains(t, args, "%rice%")
	assert.Contains(t, args, 50.0)
	assert.Contains(t, args, 500.0)
}

func TestBuildProductQueryTextOnly(t *testing.T) {
	query, args, err := buildProductQuery(Filter{Query: "oil"}).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, query, "p.price >=")
	assert.NotContains(t, query, "p.price <=")
	assert.NotContains(t, query, "p.stock >")
	assert.Equal(t, []interface{}{"%oil%", "%oil%"}, args)
}

func TestRestrictToRetailers(t *testing.T) {
	results := []Result{
		{Product: products.Product{ID: "a", RetailerID: s("near")}},
		{Product: products.Product{ID: "b", RetailerID: s("far")}},
		{Product: products.Product{ID: "c", RetailerID: nil}},
	}
	nearby := []geo.Ranked{
		{Point: geo.Point{ID: "near"}, DistanceKm: 2.5},
	}

	kept := RestrictToRetailers(results, nearby)
	require.Len(t, kept, 1)
	assert.Equal(t, "a", kept[0].ID)
	require.NotNil(t, kept[0].DistanceKm)
	assert.Equal(t, 2.5, *kept[0].DistanceKm)
}

func TestRestrictToRetailersEmptyNearby(t *testing.T) {
	results := []Result{{Product: products.Product{ID: "a", RetailerID: s("r")}}}
	assert.Empty(t, RestrictToRetailers(results, nil))
}
