package orders

import "time"

// Order is a placed order. Line items snapshot the product name and unit
// price at order time, so later catalog edits never change an order's
// history.
type Order struct {
	ID                  string     `json:"id"`
	CustomerID          *string    `json:"customerId"`
	RetailerID          *string    `json:"retailerId"`
	WholesalerID        *string    `json:"wholesalerId"`
	Items               []Item     `json:"items"`
	Total               float64    `json:"total"`
	PaymentMethod       string     `json:"paymentMethod"`
	PaymentStatus       string     `json:"paymentStatus"`
	OrderStatus         string     `json:"orderStatus"`
	DeliveryAddress     string     `json:"deliveryAddress"`
	ScheduledDate       *time.Time `json:"scheduledDate"`
	IsOfflineOrder      bool       `json:"isOfflineOrder"`
	StripeTransactionID string     `json:"-"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// Item is an immutable line-item snapshot.
type Item struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Subtotal    float64 `json:"subtotal"`
}

// ItemDetail is an Item enriched with the product's current display data
// for order detail views. The stored snapshot is untouched.
type ItemDetail struct {
	Item
	Product *ProductRef `json:"product"`
}

// ProductRef is the current product display reference, nil when the
// product has since been deleted.
type ProductRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// NewOrder is the order-creation payload.
type NewOrder struct {
	Items           []NewItem `json:"items" validate:"required,min=1,dive"`
	PaymentMethod   string    `json:"paymentMethod"`
	DeliveryAddress string    `json:"deliveryAddress"`
	ScheduledDate   *string   `json:"scheduledDate"`
	IsOfflineOrder  bool      `json:"isOfflineOrder"`
}

// NewItem references a product and quantity to order. Seller references
// are resolved server-side from the product rows, never trusted from the
// payload.
type NewItem struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// WholesaleOrder is the retailer→wholesaler order payload.
type WholesaleOrder struct {
	Items        []NewItem `json:"items" validate:"required,min=1,dive"`
	WholesalerID string    `json:"wholesalerId" validate:"required"`
}

// StatusUpdate is the partial status-change payload.
type StatusUpdate struct {
	OrderStatus   string `json:"orderStatus"`
	PaymentStatus string `json:"paymentStatus"`
}
