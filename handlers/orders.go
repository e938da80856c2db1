package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v81"

	"github.com/awmbw/live-mart/internal/orders"
	"github.com/awmbw/live-mart/internal/stores/kafka"
	"github.com/awmbw/live-mart/pkg/ctxmanage"
	"github.com/awmbw/live-mart/pkg/logkey"
)

func (h *Handler) CreateOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOf(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var no orders.NewOrder
	if err := c.ShouldBindJSON(&no); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Order must contain at least one item"})
		return
	}
	if err := h.validate.Struct(no); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Order must contain at least one item"})
		return
	}

	order, err := h.o.CreateOrder(c.Request.Context(), claims.Subject, no)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrProductNotFound):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "One or more products not found"})
		case errors.Is(err, orders.ErrInsufficientStock):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Insufficient stock for one or more products"})
		default:
			slog.Error("creating order", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.UserID, claims.Subject), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to place order"})
		}
		return
	}

	go h.afterOrderPlaced(order, claims.Email, traceId)

	// Online orders get a hosted checkout link alongside the created order.
	if order.OnlinePayment() && h.pay.Enabled() {
		url, err := h.pay.CreateCheckoutSession(order)
		if err != nil {
			slog.Error("creating checkout session", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.OrderID, order.ID), slog.String(logkey.ERROR, err.Error()))
		} else {
			c.JSON(http.StatusCreated, gin.H{"order": order, "checkoutUrl": url})
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"order": order})
}

func (h *Handler) afterOrderPlaced(order orders.Order, email, traceId string) {
	if email != "" {
		h.n.NotifyAsync(email, "Order Placed",
			fmt.Sprintf("Your order %s has been placed. Total: %.2f", order.ID, order.Total))
	}
	if h.k == nil {
		return
	}
	event := kafka.OrderPlacedEvent{
		OrderID:   order.ID,
		Total:     order.Total,
		CreatedAt: order.CreatedAt,
	}
	if order.CustomerID != nil {
		event.CustomerID = *order.CustomerID
	}
	if order.RetailerID != nil {
		event.RetailerID = *order.RetailerID
	}
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("marshaling order event", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		return
	}
	if err := h.k.ProduceMessage(kafka.TopicOrderPlaced, []byte(order.ID), data); err != nil {
		slog.Error("producing order event", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.OrderID, order.ID), slog.String(logkey.ERROR, err.Error()))
	}
}

func (h *Handler) ListOrders(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOf(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	list, err := h.o.ListForUser(c.Request.Context(), claims.Subject, claims.Role)
	if err != nil {
		slog.Error("listing orders", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, claims.Subject), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOf(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	id := c.Param("id")

	order, err := h.o.GetOrderByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		slog.Error("fetching order", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.OrderID, id), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}
	if !orders.VisibleTo(order, claims.Subject, claims.Role) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Not authorized to view this order"})
		return
	}

	details, err := h.o.ItemDetails(c.Request.Context(), order.Items)
	if err != nil {
		slog.Error("loading item details", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.OrderID, id), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "items": details})
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOf(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	id := c.Param("id")

	var su orders.StatusUpdate
	if err := c.ShouldBindJSON(&su); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if su.OrderStatus == "" && su.PaymentStatus == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}
	if su.OrderStatus != "" && !orders.KnownStatus(su.OrderStatus) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Unknown order status"})
		return
	}
	if su.PaymentStatus != "" && !orders.KnownPaymentStatus(su.PaymentStatus) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Unknown payment status"})
		return
	}

	existing, err := h.o.GetOrderByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		slog.Error("fetching order for status update", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.OrderID, id), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
		return
	}
	if !orders.VisibleTo(existing, claims.Subject, claims.Role) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Not authorized to update this order"})
		return
	}

	order, err := h.o.UpdateStatus(c.Request.Context(), id, su)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		case errors.Is(err, orders.ErrInvalidTransition):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid status transition"})
		default:
			slog.Error("updating order status", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.OrderID, id), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
		}
		return
	}

	go h.afterStatusChanged(order, su, traceId)

	c.JSON(http.StatusOK, order)
}

func (h *Handler) afterStatusChanged(order orders.Order, su orders.StatusUpdate, traceId string) {
	if order.CustomerID != nil {
		customer, err := h.u.GetUserByID(context.Background(), *order.CustomerID)
		if err == nil {
			h.n.NotifyAsync(customer.Email, "Order Update",
				fmt.Sprintf("Your order %s is now %s.", order.ID, order.OrderStatus))
		}
	}
	if h.k == nil {
		return
	}
	data, err := json.Marshal(kafka.OrderStatusChangedEvent{
		OrderID:       order.ID,
		OrderStatus:   su.OrderStatus,
		PaymentStatus: su.PaymentStatus,
		UpdatedAt:     order.UpdatedAt,
	})
	if err != nil {
		slog.Error("marshaling status event", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		return
	}
	if err := h.k.ProduceMessage(kafka.TopicOrderStatusChanged, []byte(order.ID), data); err != nil {
		slog.Error("producing status event", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.OrderID, order.ID), slog.String(logkey.ERROR, err.Error()))
	}
}

func (h *Handler) CreateWholesaleOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	claims, ok := claimsOf(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var wo orders.WholesaleOrder
	if err := c.ShouldBindJSON(&wo); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Wholesaler and items are required"})
		return
	}
	if err := h.validate.Struct(wo); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Wholesaler and items are required"})
		return
	}

	order, err := h.o.CreateWholesaleOrder(c.Request.Context(), claims.Subject, wo)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrProductNotFound):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "One or more products not found"})
		case errors.Is(err, orders.ErrInsufficientStock):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Insufficient stock for one or more products"})
		case errors.Is(err, orders.ErrWrongWholesaler):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Product does not belong to this wholesaler"})
		default:
			slog.Error("creating wholesale order", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.UserID, claims.Subject), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to place order"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

func (h *Handler) Webhook(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	const maxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	var event stripe.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		slog.Error("binding webhook event", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var orderId, transactionId string
	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			slog.Error("unmarshaling checkout session", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		orderId, transactionId = session.Metadata["order_id"], session.ID

	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			slog.Error("unmarshaling payment intent", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		orderId, transactionId = intent.Metadata["order_id"], intent.ID

	default:
		slog.Info("unhandled event type", slog.String(logkey.TraceID, traceId),
			slog.String("event_type", string(event.Type)))
		c.JSON(http.StatusOK, gin.H{"message": "Event type not handled", "event": event.Type})
		return
	}

	if orderId == "" {
		slog.Error("webhook event missing order_id", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing order_id metadata"})
		return
	}

	order, err := h.o.MarkPaid(c.Request.Context(), orderId, transactionId)
	if err != nil {
		slog.Error("marking order paid", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.OrderID, orderId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
		return
	}

	go h.afterOrderPaid(order, transactionId, traceId)
	c.Status(http.StatusOK)
}

func (h *Handler) afterOrderPaid(order orders.Order, sessionID, traceId string) {
	if order.CustomerID != nil {
		customer, err := h.u.GetUserByID(context.Background(), *order.CustomerID)
		if err == nil {
			h.n.NotifyAsync(customer.Email, "Payment Received",
				fmt.Sprintf("Payment for order %s was received. Thank you!", order.ID))
		}
	}
	if h.k == nil {
		return
	}
	data, err := json.Marshal(kafka.OrderPaidEvent{
		OrderID:             order.ID,
		StripeTransactionID: sessionID,
		CreatedAt:           time.Now().UTC(),
	})
	if err != nil {
		slog.Error("marshaling paid event", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.ERROR, err.Error()))
		return
	}
	if err := h.k.ProduceMessage(kafka.TopicOrderPaid, []byte(order.ID), data); err != nil {
		slog.Error("producing paid event", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.OrderID, order.ID), slog.String(logkey.ERROR, err.Error()))
	}
}
