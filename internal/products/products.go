package products

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
	ErrNotFound = errors.New("product not found")
	ErrNotOwner = errors.New("not authorized to modify this product")
)

// Conf is the catalog store.
type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

const productColumns = `p.id, p.name, p.description, p.price, p.stock,
	p.category_id, p.image, p.retailer_id, p.wholesaler_id,
	p.availability_date, p.is_local_product, p.created_at, p.updated_at,
	COALESCE(AVG(f.rating), 0) AS average_rating`

const productJoinGroup = `
	LEFT JOIN feedback f ON f.product_id = p.id`

const productGroupBy = `
	GROUP BY p.id`

func scanProduct(row interface{ Scan(...any) error }) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock,
		&p.CategoryID, &p.Image, &p.RetailerID, &p.WholesalerID,
		&p.AvailabilityDate, &p.IsLocalProduct, &p.CreatedAt, &p.UpdatedAt,
		&p.AverageRating)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("scanning product: %w", err)
	}
	return p, nil
}

func collectProducts(rows *sql.Rows) ([]Product, error) {
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}
	return out, nil
}

func parseAvailability(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, fmt.Errorf("invalid availability date %q: %w", *s, err)
	}
	return &t, nil
}

// InsertProduct creates a catalog entry. The owning side is derived from
// the caller's role: retailers list their own products, wholesalers supply
// theirs directly.
func (c *Conf) InsertProduct(ctx context.Context, np NewProduct, callerID, callerRole string) (Product, error) {
	availability, err := parseAvailability(np.AvailabilityDate)
	if err != nil {
		return Product{}, err
	}

	var retailerID, wholesalerID *string
	switch callerRole {
	case auth.RoleRetailer:
		retailerID = &callerID
		wholesalerID = np.WholesalerID
	case auth.RoleWholesaler:
		wholesalerID = &callerID
	}

	query := `
		INSERT INTO products (id, name, description, price, stock, category_id,
			image, retailer_id, wholesaler_id, availability_date, is_local_product)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	var id string
	err = c.db.QueryRowContext(ctx, query, uuid.NewString(), np.Name, np.Description,
		np.Price, np.Stock, np.CategoryID, np.Image, retailerID, wholesalerID,
		availability, np.IsLocalProduct).Scan(&id)
	if err != nil {
		return Product{}, fmt.Errorf("inserting product: %w", err)
	}
	return c.GetProductByID(ctx, id)
}

func (c *Conf) GetProductByID(ctx context.Context, id string) (Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p` + productJoinGroup + `
		WHERE p.id = $1` + productGroupBy
	return scanProduct(c.db.QueryRowContext(ctx, query, id))
}

// Owners resolves the display names of the product's retailer and
// wholesaler; either may be nil.
func (c *Conf) Owners(ctx context.Context, p Product) (retailer, wholesaler *Owner, err error) {
	lookup := func(id *string) (*Owner, error) {
		if id == nil {
			return nil, nil
		}
		var o Owner
		err := c.db.QueryRowContext(ctx,
			`SELECT id, name FROM users WHERE id = $1`, *id).Scan(&o.ID, &o.Name)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}
			return nil, fmt.Errorf("looking up owner: %w", err)
		}
		return &o, nil
	}

	if retailer, err = lookup(p.RetailerID); err != nil {
		return nil, nil, err
	}
	if wholesaler, err = lookup(p.WholesalerID); err != nil {
		return nil, nil, err
	}
	return retailer, wholesaler, nil
}

// OwnedBy reports whether the caller may mutate the product: the listing
// retailer or the supplying wholesaler, per role.
func OwnedBy(p Product, callerID, callerRole string) bool {
	switch callerRole {
	case auth.RoleRetailer:
		return p.RetailerID != nil && *p.RetailerID == callerID
	case auth.RoleWholesaler:
		return p.WholesalerID != nil && *p.WholesalerID == callerID
	}
	return false
}

// UpdateProduct merges the present fields of the update into the product.
func (c *Conf) UpdateProduct(ctx context.Context, id string, up ProductUpdate) (Product, error) {
	availability, err := parseAvailability(up.AvailabilityDate)
	if err != nil {
		return Product{}, err
	}
	setAvailability := up.AvailabilityDate != nil

	query := `
		UPDATE products SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			price = COALESCE($4, price),
			stock = COALESCE($5, stock),
			category_id = COALESCE($6, category_id),
			image = COALESCE($7, image),
			availability_date = CASE WHEN $8 THEN $9 ELSE availability_date END,
			is_local_product = COALESCE($10, is_local_product),
			updated_at = NOW()
		WHERE id = $1`
	res, err := c.db.ExecContext(ctx, query, id, up.Name, up.Description, up.Price,
		up.Stock, up.CategoryID, up.Image, setAvailability, availability, up.IsLocalProduct)
	if err != nil {
		return Product{}, fmt.Errorf("updating product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Product{}, ErrNotFound
	}
	return c.GetProductByID(ctx, id)
}

func (c *Conf) DeleteProduct(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListProducts returns catalog entries matching the filter, each with its
// aggregate rating.
func (c *Conf) ListProducts(ctx context.Context, filter ListFilter) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p` + productJoinGroup + `
		WHERE ($1 = '' OR p.category_id = $1)
		  AND ($2 = '' OR p.retailer_id = $2::uuid)
		  AND (NOT $3 OR p.stock > 0)
		  AND ($4::boolean IS NULL OR p.is_local_product = $4)` + productGroupBy + `
		ORDER BY p.created_at DESC`
	rows, err := c.db.QueryContext(ctx, query, filter.CategoryID, filter.RetailerID,
		filter.InStock, filter.IsLocal)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return collectProducts(rows)
}

func (c *Conf) ListByRetailer(ctx context.Context, retailerID string) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p` + productJoinGroup + `
		WHERE p.retailer_id = $1` + productGroupBy + `
		ORDER BY p.created_at DESC`
	rows, err := c.db.QueryContext(ctx, query, retailerID)
	if err != nil {
		return nil, fmt.Errorf("listing retailer products: %w", err)
	}
	return collectProducts(rows)
}

func (c *Conf) ListByWholesaler(ctx context.Context, wholesalerID string) ([]Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p` + productJoinGroup + `
		WHERE p.wholesaler_id = $1` + productGroupBy + `
		ORDER BY p.created_at DESC`
	rows, err := c.db.QueryContext(ctx, query, wholesalerID)
	if err != nil {
		return nil, fmt.Errorf("listing wholesaler products: %w", err)
	}
	return collectProducts(rows)
}

// CountByRetailer supports the nearby-shops view.
func (c *Conf) CountByRetailer(ctx context.Context, retailerID string) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE retailer_id = $1`, retailerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting retailer products: %w", err)
	}
	return n, nil
}

// Categories returns the fixed reference set.
func (c *Conf) Categories(ctx context.Context) ([]Category, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, name, icon FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var cat Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Icon); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}
	return categories, nil
}
