// Package payments wraps the Stripe checkout flow for online orders. When
// no Stripe key is configured the marketplace still takes orders; they just
// stay in payment status pending until settled offline.
package payments

import (
	"fmt"
	"os"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"

	"github.com/awmbw/live-mart/internal/orders"
)

// Conf holds the Stripe configuration.
type Conf struct {
	key string
}

func NewConf() *Conf {
	return &Conf{key: os.Getenv("STRIPE_TEST_KEY")}
}

// Enabled reports whether a Stripe key is configured.
func (c *Conf) Enabled() bool {
	return c.key != ""
}

// CreateCheckoutSession builds a Stripe checkout session for an online
// order and returns its URL. The order id rides in the payment intent
// metadata so the webhook can settle it.
func (c *Conf) CreateCheckoutSession(o orders.Order) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("stripe is not configured")
	}
	stripe.Key = c.key

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(o.Items))
	for _, item := range o.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(string(stripe.CurrencyINR)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.ProductName),
				},
				// Stripe wants the smallest currency unit.
				UnitAmount: stripe.Int64(int64(item.Price * 100)),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	var customerID string
	if o.CustomerID != nil {
		customerID = *o.CustomerID
	}

	params := &stripe.CheckoutSessionParams{
		SubmitType:               stripe.String("pay"),
		Currency:                 stripe.String(string(stripe.CurrencyINR)),
		BillingAddressCollection: stripe.String("auto"),
		LineItems:                lineItems,
		Mode:                     stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:               stripe.String(os.Getenv("CHECKOUT_SUCCESS_URL")),
		CancelURL:                stripe.String(os.Getenv("CHECKOUT_CANCEL_URL")),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{
				"order_id": o.ID,
				"user_id":  customerID,
			},
		},
	}
	params.AddMetadata("order_id", o.ID)
	params.AddMetadata("user_id", customerID)

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("creating checkout session: %w", err)
	}
	return sess.URL, nil
}
