package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/awmbw/live-mart/internal/auth"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrWrongWholesaler   = errors.New("product not available from this wholesaler")
	ErrNotAuthorized     = errors.New("not authorized for this order")
)

// Conf is the orders store.
type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}

// lockedProduct is a product row read under FOR UPDATE during placement.
type lockedProduct struct {
	id           string
	name         string
	price        float64
	stock        int
	retailerID   *string
	wholesalerID *string
}

func lockProduct(ctx context.Context, tx *sql.Tx, productID string) (lockedProduct, error) {
	var p lockedProduct
	err := tx.QueryRowContext(ctx, `
		SELECT id, name, price, stock, retailer_id, wholesaler_id
		FROM products WHERE id = $1
		FOR UPDATE`, productID).
		Scan(&p.id, &p.name, &p.price, &p.stock, &p.retailerID, &p.wholesalerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return lockedProduct{}, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		return lockedProduct{}, fmt.Errorf("locking product %s: %w", productID, err)
	}
	return p, nil
}

// BuildItems turns requested quantities into snapshot line items against
// the given unit prices and returns the order total. Pure; the transaction
// paths and tests share it.
func BuildItems(requested []NewItem, resolve func(productID string) (name string, price float64, ok bool)) ([]Item, float64, error) {
	var items []Item
	var total float64
	for _, r := range requested {
		name, price, ok := resolve(r.ProductID)
		if !ok {
			return nil, 0, fmt.Errorf("%w: %s", ErrProductNotFound, r.ProductID)
		}
		subtotal := price * float64(r.Quantity)
		total += subtotal
		items = append(items, Item{
			ProductID:   r.ProductID,
			ProductName: name,
			Quantity:    r.Quantity,
			Price:       price,
			Subtotal:    subtotal,
		})
	}
	return items, total, nil
}

// CreateOrder places a customer order. The whole placement runs in one
// transaction: every product row is locked, stock is validated and
// decremented, and the order plus snapshots are inserted. Any item failing
// validation aborts the transaction with no stock mutation.
func (c *Conf) CreateOrder(ctx context.Context, customerID string, no NewOrder) (Order, error) {
	var scheduled *time.Time
	if no.IsOfflineOrder && no.ScheduledDate != nil && *no.ScheduledDate != "" {
		t, err := time.Parse("2006-01-02", *no.ScheduledDate)
		if err != nil {
			return Order{}, fmt.Errorf("invalid scheduled date %q: %w", *no.ScheduledDate, err)
		}
		scheduled = &t
	}

	method := no.PaymentMethod
	if method == "" {
		method = MethodOnline
	}

	var created Order
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		locked := make(map[string]lockedProduct, len(no.Items))
		for _, item := range no.Items {
			p, err := lockProduct(ctx, tx, item.ProductID)
			if err != nil {
				return err
			}
			if p.stock < item.Quantity {
				return fmt.Errorf("%w for %s", ErrInsufficientStock, p.name)
			}
			locked[item.ProductID] = p
		}

		items, total, err := BuildItems(no.Items, func(id string) (string, float64, bool) {
			p, ok := locked[id]
			return p.name, p.price, ok
		})
		if err != nil {
			return err
		}

		// All items come from the same retailer in a customer order.
		var retailerID, wholesalerID *string
		if first, ok := locked[no.Items[0].ProductID]; ok {
			retailerID = first.retailerID
			wholesalerID = first.wholesalerID
		}

		created = Order{
			ID:              uuid.NewString(),
			CustomerID:      &customerID,
			RetailerID:      retailerID,
			WholesalerID:    wholesalerID,
			Items:           items,
			Total:           total,
			PaymentMethod:   method,
			PaymentStatus:   PaymentPending,
			OrderStatus:     StatusPlaced,
			DeliveryAddress: no.DeliveryAddress,
			ScheduledDate:   scheduled,
			IsOfflineOrder:  no.IsOfflineOrder,
		}

		if err := insertOrder(ctx, tx, &created); err != nil {
			return err
		}
		return decrementStock(ctx, tx, no.Items)
	})
	if err != nil {
		return Order{}, err
	}
	return created, nil
}

// CreateWholesaleOrder places a retailer→wholesaler restock order. Every
// item must be supplied by the named wholesaler.
func (c *Conf) CreateWholesaleOrder(ctx context.Context, retailerID string, wo WholesaleOrder) (Order, error) {
	var created Order
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		locked := make(map[string]lockedProduct, len(wo.Items))
		for _, item := range wo.Items {
			p, err := lockProduct(ctx, tx, item.ProductID)
			if err != nil {
				return err
			}
			if p.wholesalerID == nil || *p.wholesalerID != wo.WholesalerID {
				return fmt.Errorf("%w: %s", ErrWrongWholesaler, p.name)
			}
			if p.stock < item.Quantity {
				return fmt.Errorf("%w for %s", ErrInsufficientStock, p.name)
			}
			locked[item.ProductID] = p
		}

		items, total, err := BuildItems(wo.Items, func(id string) (string, float64, bool) {
			p, ok := locked[id]
			return p.name, p.price, ok
		})
		if err != nil {
			return err
		}

		created = Order{
			ID:            uuid.NewString(),
			RetailerID:    &retailerID,
			WholesalerID:  &wo.WholesalerID,
			Items:         items,
			Total:         total,
			PaymentMethod: MethodOffline,
			PaymentStatus: PaymentPending,
			OrderStatus:   StatusPlaced,
		}

		if err := insertOrder(ctx, tx, &created); err != nil {
			return err
		}
		return decrementStock(ctx, tx, wo.Items)
	})
	if err != nil {
		return Order{}, err
	}
	return created, nil
}

func insertOrder(ctx context.Context, tx *sql.Tx, o *Order) error {
	err := tx.QueryRowContext(ctx, `
		INSERT INTO orders (id, customer_id, retailer_id, wholesaler_id, total,
			payment_method, payment_status, order_status, delivery_address,
			scheduled_date, is_offline_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`,
		o.ID, o.CustomerID, o.RetailerID, o.WholesalerID, o.Total,
		o.PaymentMethod, o.PaymentStatus, o.OrderStatus, o.DeliveryAddress,
		o.ScheduledDate, o.IsOfflineOrder).
		Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	for _, item := range o.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, product_name, quantity, price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			o.ID, item.ProductID, item.ProductName, item.Quantity, item.Price, item.Subtotal)
		if err != nil {
			return fmt.Errorf("inserting order item: %w", err)
		}
	}
	return nil
}

func decrementStock(ctx context.Context, tx *sql.Tx, items []NewItem) error {
	for _, item := range items {
		_, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - $2, updated_at = NOW() WHERE id = $1`,
			item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("decrementing stock for %s: %w", item.ProductID, err)
		}
	}
	return nil
}

func (c *Conf) loadItems(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT product_id, product_name, quantity, price, subtotal
		FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("loading order items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.Quantity, &it.Price, &it.Subtotal); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order items: %w", err)
	}
	return items, nil
}

const orderColumns = `id, customer_id, retailer_id, wholesaler_id, total,
	payment_method, payment_status, order_status, delivery_address,
	scheduled_date, is_offline_order, stripe_transaction_id, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.RetailerID, &o.WholesalerID, &o.Total,
		&o.PaymentMethod, &o.PaymentStatus, &o.OrderStatus, &o.DeliveryAddress,
		&o.ScheduledDate, &o.IsOfflineOrder, &o.StripeTransactionID,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("scanning order: %w", err)
	}
	return o, nil
}

// GetOrderByID loads an order with its line items.
func (c *Conf) GetOrderByID(ctx context.Context, id string) (Order, error) {
	o, err := scanOrder(c.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return Order{}, err
	}
	o.Items, err = c.loadItems(ctx, id)
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

// VisibleTo gates order reads: customers see their own orders, retailers
// and wholesalers the ones referencing them.
func VisibleTo(o Order, callerID, callerRole string) bool {
	switch callerRole {
	case auth.RoleCustomer:
		return o.CustomerID != nil && *o.CustomerID == callerID
	case auth.RoleRetailer:
		return o.RetailerID != nil && *o.RetailerID == callerID
	case auth.RoleWholesaler:
		return o.WholesalerID != nil && *o.WholesalerID == callerID
	}
	return false
}

// ListForUser returns the orders visible to the caller per role.
func (c *Conf) ListForUser(ctx context.Context, callerID, callerRole string) ([]Order, error) {
	var column string
	switch callerRole {
	case auth.RoleCustomer:
		column = "customer_id"
	case auth.RoleRetailer:
		column = "retailer_id"
	case auth.RoleWholesaler:
		column = "wholesaler_id"
	default:
		return nil, nil
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE `+column+` = $1 ORDER BY created_at DESC`,
		callerID)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orders: %w", err)
	}

	for i := range out {
		out[i].Items, err = c.loadItems(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListByCustomer returns a customer's orders, used by the history views.
func (c *Conf) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	return c.ListForUser(ctx, customerID, auth.RoleCustomer)
}

// ListByRetailer returns a retailer's orders.
func (c *Conf) ListByRetailer(ctx context.Context, retailerID string) ([]Order, error) {
	return c.ListForUser(ctx, retailerID, auth.RoleRetailer)
}

// UpdateStatus applies a partial status merge after validating both state
// machines against the order's current state.
func (c *Conf) UpdateStatus(ctx context.Context, id string, su StatusUpdate) (Order, error) {
	var updated Order
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		current, err := scanOrder(tx.QueryRowContext(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}

		orderStatus := current.OrderStatus
		if su.OrderStatus != "" && su.OrderStatus != current.OrderStatus {
			if !KnownStatus(su.OrderStatus) || !ValidStatusTransition(current.OrderStatus, su.OrderStatus) {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.OrderStatus, su.OrderStatus)
			}
			orderStatus = su.OrderStatus
		}

		paymentStatus := current.PaymentStatus
		if su.PaymentStatus != "" && su.PaymentStatus != current.PaymentStatus {
			if !KnownPaymentStatus(su.PaymentStatus) || !ValidPaymentTransition(current.PaymentStatus, su.PaymentStatus) {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.PaymentStatus, su.PaymentStatus)
			}
			paymentStatus = su.PaymentStatus
		}

		updated, err = scanOrder(tx.QueryRowContext(ctx, `
			UPDATE orders SET order_status = $2, payment_status = $3, updated_at = NOW()
			WHERE id = $1
			RETURNING `+orderColumns, id, orderStatus, paymentStatus))
		return err
	})
	if err != nil {
		return Order{}, err
	}
	updated.Items, err = c.loadItems(ctx, id)
	if err != nil {
		return Order{}, err
	}
	return updated, nil
}

// MarkPaid records a successful payment from the Stripe webhook.
func (c *Conf) MarkPaid(ctx context.Context, id, stripeTransactionID string) (Order, error) {
	var updated Order
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		current, err := scanOrder(tx.QueryRowContext(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if !ValidPaymentTransition(current.PaymentStatus, PaymentPaid) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.PaymentStatus, PaymentPaid)
		}
		updated, err = scanOrder(tx.QueryRowContext(ctx, `
			UPDATE orders SET payment_status = $2, stripe_transaction_id = $3, updated_at = NOW()
			WHERE id = $1
			RETURNING `+orderColumns, id, PaymentPaid, stripeTransactionID))
		return err
	})
	if err != nil {
		return Order{}, err
	}
	return updated, nil
}

// ItemDetails enriches line items with the product's current display data.
func (c *Conf) ItemDetails(ctx context.Context, items []Item) ([]ItemDetail, error) {
	details := make([]ItemDetail, 0, len(items))
	for _, item := range items {
		detail := ItemDetail{Item: item}
		var ref ProductRef
		err := c.db.QueryRowContext(ctx,
			`SELECT id, name, image FROM products WHERE id = $1`, item.ProductID).
			Scan(&ref.ID, &ref.Name, &ref.Image)
		switch {
		case err == nil:
			detail.Product = &ref
		case errors.Is(err, sql.ErrNoRows):
			// Product deleted since the order; the snapshot stands alone.
		default:
			return nil, fmt.Errorf("loading product ref: %w", err)
		}
		details = append(details, detail)
	}
	return details, nil
}
