package products

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/awmbw/live-mart/internal/auth"
)

func s(v string) *string { return &v }

func TestOwnedBy(t *testing.T) {
	p := Product{RetailerID: s("ret-1"), WholesalerID: s("who-1")}

	assert.True(t, OwnedBy(p, "ret-1", auth.RoleRetailer))
	assert.True(t, OwnedBy(p, "who-1", auth.RoleWholesaler))

	assert.False(t, OwnedBy(p, "ret-2", auth.RoleRetailer))
	assert.False(t, OwnedBy(p, "who-2", auth.RoleWholesaler))
	// A retailer id never satisfies the wholesaler gate, and customers can
	// never mutate the catalog.
	assert.False(t, OwnedBy(p, "ret-1", auth.RoleWholesaler))
	assert.False(t, OwnedBy(p, "ret-1", auth.RoleCustomer))
}

func TestOwnedByUnownedProduct(t *testing.T) {
	p := Product{}
	assert.False(t, OwnedBy(p, "anyone", auth.RoleRetailer))
	assert.False(t, OwnedBy(p, "anyone", auth.RoleWholesaler))
}

func TestParseAvailability(t *testing.T) {
	got, err := parseAvailability(s("2025-12-01"))
	assert.NoError(t, err)
	if assert.NotNil(t, got) {
		assert.Equal(t, "2025-12-01", got.Format("2006-01-02"))
	}

	got, err = parseAvailability(nil)
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseAvailability(s(""))
	assert.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseAvailability(s("01/12/2025"))
	assert.Error(t, err)
}
