package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddItemMergesQuantity(t *testing.T) {
	var c Cart
	c.AddItem(Item{ProductID: "p1", ProductName: "Rice", Price: 250, Quantity: 1})
	c.AddItem(Item{ProductID: "p1", ProductName: "Rice", Price: 250, Quantity: 2})
	c.AddItem(Item{ProductID: "p2", ProductName: "Oil", Price: 180, Quantity: 1})

	require.Len(t, c.Items, 2)
	assert.Equal(t, 3, c.Items[0].Quantity)
}

func TestAddItemIgnoresNonPositiveQuantity(t *testing.T) {
	var c Cart
	c.AddItem(Item{ProductID: "p1", Quantity: 0})
	c.AddItem(Item{ProductID: "p2", Quantity: -1})
	assert.Empty(t, c.Items)
}

func TestUpdateQuantity(t *testing.T) {
	var c Cart
	c.AddItem(Item{ProductID: "p1", Quantity: 2})

	c.UpdateQuantity("p1", 5)
	assert.Equal(t, 5, c.Items[0].Quantity)

	// Zero removes the line.
	c.UpdateQuantity("p1", 0)
	assert.Empty(t, c.Items)
}

func TestRemoveItem(t *testing.T) {
	var c Cart
	c.AddItem(Item{ProductID: "p1", Quantity: 1})
	c.AddItem(Item{ProductID: "p2", Quantity: 1})

	c.RemoveItem("p1")
	require.Len(t, c.Items, 1)
	assert.Equal(t, "p2", c.Items[0].ProductID)

	c.RemoveItem("missing")
	assert.Len(t, c.Items, 1)
}

func TestSubtotal(t *testing.T) {
	var c Cart
	assert.Zero(t, c.Subtotal())

	c.AddItem(Item{ProductID: "p1", Price: 250, Quantity: 2})
	c.AddItem(Item{ProductID: "p2", Price: 180.50, Quantity: 1})
	assert.Equal(t, 680.50, c.Subtotal())
}

func TestToOrderItems(t *testing.T) {
	var c Cart
	_, err := c.ToOrderItems()
	assert.ErrorIs(t, err, ErrEmptyCart)

	c.AddItem(Item{ProductID: "p1", Quantity: 2})
	items, err := c.ToOrderItems()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "p1", items[0].ProductID)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestClear(t *testing.T) {
	var c Cart
	c.AddItem(Item{ProductID: "p1", Quantity: 1})
	c.Clear()
	assert.Empty(t, c.Items)
}
