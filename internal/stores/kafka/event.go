package kafka

import "time"

const (
	TopicAccountCreated     = `live-mart.account-created`
	TopicOrderPlaced        = `live-mart.order-placed`
	TopicOrderStatusChanged = `live-mart.order-status-changed`
	TopicOrderPaid          = `live-mart.order-paid`
)

type AccountCreatedEvent struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type OrderPlacedEvent struct {
	OrderID    string    `json:"order_id"`
	CustomerID string    `json:"customer_id,omitempty"`
	RetailerID string    `json:"retailer_id,omitempty"`
	Total      float64   `json:"total"`
	CreatedAt  time.Time `json:"created_at"`
}

type OrderStatusChangedEvent struct {
	OrderID       string    `json:"order_id"`
	OrderStatus   string    `json:"order_status,omitempty"`
	PaymentStatus string    `json:"payment_status,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type OrderPaidEvent struct {
	OrderID             string    `json:"order_id"`
	StripeTransactionID string    `json:"stripe_transaction_id"`
	CreatedAt           time.Time `json:"created_at"`
}
