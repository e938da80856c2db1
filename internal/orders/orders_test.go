package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awmbw/live-mart/internal/auth"
)

func s(v string) *string { return &v }

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to string
		ok       bool
	}{
		{StatusPlaced, StatusConfirmed, true},
		{StatusPlaced, StatusCancelled, true},
		{StatusConfirmed, StatusProcessing, true},
		{StatusProcessing, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, true},

		{StatusPlaced, StatusShipped, false},
		{StatusPlaced, StatusDelivered, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPlaced, false},
		{StatusDelivered, StatusPlaced, false},
		{StatusConfirmed, StatusPlaced, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ok, ValidStatusTransition(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestPaymentTransitions(t *testing.T) {
	assert.True(t, ValidPaymentTransition(PaymentPending, PaymentPaid))
	assert.True(t, ValidPaymentTransition(PaymentPending, PaymentFailed))
	assert.True(t, ValidPaymentTransition(PaymentPaid, PaymentRefunded))

	assert.False(t, ValidPaymentTransition(PaymentPaid, PaymentPending))
	assert.False(t, ValidPaymentTransition(PaymentRefunded, PaymentPaid))
	assert.False(t, ValidPaymentTransition(PaymentFailed, PaymentPaid))
}

func TestKnownStatus(t *testing.T) {
	assert.True(t, KnownStatus(StatusPlaced))
	assert.True(t, KnownPaymentStatus(PaymentRefunded))
	assert.False(t, KnownStatus("sitting-in-warehouse"))
	assert.False(t, KnownPaymentStatus("maybe"))
}

func TestOnlinePayment(t *testing.T) {
	assert.True(t, Order{PaymentMethod: MethodOnline}.OnlinePayment())
	assert.False(t, Order{PaymentMethod: MethodOffline}.OnlinePayment())
	// Only the recognized method names count; anything else stays offline.
	assert.False(t, Order{PaymentMethod: "card"}.OnlinePayment())
	assert.False(t, Order{}.OnlinePayment())
}

func TestBuildItemsComputesTotals(t *testing.T) {
	prices := map[string]struct {
		name  string
		price float64
	}{
		"p1": {"Rice 5kg", 250},
		"p2": {"Sunflower Oil", 180.50},
	}
	resolve := func(id string) (string, float64, bool) {
		p, ok := prices[id]
		return p.name, p.price, ok
	}

	items, total, err := BuildItems([]NewItem{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 1},
	}, resolve)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, 500.0, items[0].Subtotal)
	assert.Equal(t, 180.50, items[1].Subtotal)
	assert.Equal(t, items[0].Subtotal+items[1].Subtotal, total)
	// Snapshots carry the price and name at order time.
	assert.Equal(t, "Rice 5kg", items[0].ProductName)
	assert.Equal(t, 250.0, items[0].Price)
}

func TestBuildItemsUnknownProduct(t *testing.T) {
	resolve := func(string) (string, float64, bool) { return "", 0, false }
	_, _, err := BuildItems([]NewItem{{ProductID: "ghost", Quantity: 1}}, resolve)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestVisibleTo(t *testing.T) {
	o := Order{CustomerID: s("cust-1"), RetailerID: s("ret-1"), WholesalerID: s("who-1")}

	assert.True(t, VisibleTo(o, "cust-1", auth.RoleCustomer))
	assert.True(t, VisibleTo(o, "ret-1", auth.RoleRetailer))
	assert.True(t, VisibleTo(o, "who-1", auth.RoleWholesaler))

	assert.False(t, VisibleTo(o, "cust-2", auth.RoleCustomer))
	assert.False(t, VisibleTo(o, "ret-1", auth.RoleCustomer))
	assert.False(t, VisibleTo(o, "cust-1", auth.RoleRetailer))
}

func TestVisibleToWholesaleOrderHasNoCustomer(t *testing.T) {
	o := Order{RetailerID: s("ret-1"), WholesalerID: s("who-1")}
	assert.False(t, VisibleTo(o, "anyone", auth.RoleCustomer))
	assert.True(t, VisibleTo(o, "ret-1", auth.RoleRetailer))
}
