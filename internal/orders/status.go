package orders

import "errors"

// Order statuses.
const (
	StatusPlaced     = "placed"
	StatusConfirmed  = "confirmed"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// Payment statuses.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"
)

// Payment methods.
const (
	MethodOnline  = "online"
	MethodOffline = "offline"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// OnlinePayment reports whether the order settles through the hosted
// checkout flow rather than on delivery or in store.
func (o Order) OnlinePayment() bool {
	return o.PaymentMethod == MethodOnline
}

// statusTransitions is the allowed order-status graph. Cancellation is
// reachable from every non-terminal state; delivered and cancelled are
// terminal.
var statusTransitions = map[string][]string{
	StatusPlaced:     {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

var paymentTransitions = map[string][]string{
	PaymentPending:  {PaymentPaid, PaymentFailed},
	PaymentPaid:     {PaymentRefunded},
	PaymentFailed:   {},
	PaymentRefunded: {},
}

// ValidStatusTransition reports whether an order may move from one status
// to another.
func ValidStatusTransition(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidPaymentTransition reports whether a payment status change is legal.
func ValidPaymentTransition(from, to string) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// KnownStatus reports whether s is a recognized order status.
func KnownStatus(s string) bool {
	_, ok := statusTransitions[s]
	return ok
}

// KnownPaymentStatus reports whether s is a recognized payment status.
func KnownPaymentStatus(s string) bool {
	_, ok := paymentTransitions[s]
	return ok
}
