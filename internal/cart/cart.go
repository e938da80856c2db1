// Package cart is the client-held cart: a value object mirroring what the
// browser keeps in local storage. The server never stores it; it exists so
// clients and tests share one implementation of cart arithmetic.
package cart

import (
	"errors"

	"github.com/awmbw/live-mart/internal/orders"
)

var ErrEmptyCart = errors.New("cart is empty")

// Item is a product reference with the quantity and the unit price shown
// to the shopper at add time. The authoritative price is re-read at
// checkout; this one only drives the client-side subtotal.
type Item struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

// Cart holds line items keyed by product.
type Cart struct {
	Items []Item `json:"items"`
}

// AddItem appends a product, merging quantity into an existing line.
func (c *Cart) AddItem(item Item) {
	if item.Quantity <= 0 {
		return
	}
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			return
		}
	}
	c.Items = append(c.Items, item)
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (c *Cart) UpdateQuantity(productID string, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(productID)
		return
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return
		}
	}
}

// RemoveItem drops a line by product id.
func (c *Cart) RemoveItem(productID string) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = nil
}

// Subtotal is the client-side display total.
func (c *Cart) Subtotal() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// ToOrderItems converts the cart into an order-creation payload.
func (c *Cart) ToOrderItems() ([]orders.NewItem, error) {
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}
	out := make([]orders.NewItem, 0, len(c.Items))
	for _, item := range c.Items {
		out = append(out, orders.NewItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return out, nil
}
