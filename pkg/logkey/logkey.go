package logkey

// Keys used for structured logging across the service.
const (
	TraceID = "Trace ID"
	ERROR   = "Error"

	UserID    = "UserID"
	ProductID = "ProductID"
	OrderID   = "OrderID"
	Email     = "Email"
)
