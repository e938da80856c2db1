package search

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/awmbw/live-mart/internal/geo"
	"github.com/awmbw/live-mart/internal/products"
	"github.com/awmbw/live-mart/internal/users"
)

// Filter holds the optional, conjunctive product-search criteria.
type Filter struct {
	Query      string
	CategoryID string
	MinPrice   *float64
	MaxPrice   *float64
	InStock    bool
	IsLocal    bool

	// Geo restriction: when Lat/Lng are set, only products whose retailer
	// is within MaxDistanceKm survive, annotated with that distance.
	Lat           *float64
	Lng           *float64
	MaxDistanceKm float64
}

// Result is a product hit, with retailer distance when the search was
// geo-restricted.
type Result struct {
	products.Product
	DistanceKm *float64 `json:"distance,omitempty"`
}

// Shop is a nearby-retailer hit.
type Shop struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	DistanceKm   float64  `json:"distance"`
	ProductCount int      `json:"productCount"`
}

// Conf is the search store. Retailer and product-count lookups go through
// the owning stores; only the combined filter query runs here.
type Conf struct {
	db       *sql.DB
	users    *users.Conf
	products *products.Conf
}

func NewConf(db *sql.DB, u *users.Conf, p *products.Conf) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if u == nil || p == nil {
		return nil, fmt.Errorf("user and product stores are required")
	}
	return &Conf{db: db, users: u, products: p}, nil
}

// buildProductQuery composes one SQL statement from the present filters.
func buildProductQuery(f Filter) sq.SelectBuilder {
	q := sq.Select(
		"p.id", "p.name", "p.description", "p.price", "p.stock",
		"p.category_id", "p.image", "p.retailer_id", "p.wholesaler_id",
		"p.availability_date", "p.is_local_product", "p.created_at", "p.updated_at",
		"COALESCE(AVG(f.rating), 0) AS average_rating",
	).
		From("products p").
		LeftJoin("feedback f ON f.product_id = p.id").
		GroupBy("p.id").
		OrderBy("p.created_at DESC").
		PlaceholderFormat(sq.Dollar)

	if f.Query != "" {
		like := "%" + f.Query + "%"
		q = q.Where(sq.Or{
			sq.ILike{"p.name": like},
			sq.ILike{"p.description": like},
		})
	}
	if f.CategoryID != "" {
		q = q.Where(sq.Eq{"p.category_id": f.CategoryID})
	}
	if f.MinPrice != nil {
		q = q.Where(sq.GtOrEq{"p.price": *f.MinPrice})
	}
	if f.MaxPrice != nil {
		q = q.Where(sq.LtOrEq{"p.price": *f.MaxPrice})
	}
	if f.InStock {
		q = q.Where(sq.Gt{"p.stock": 0})
	}
	if f.IsLocal {
		q = q.Where(sq.Eq{"p.is_local_product": true})
	}
	return q
}

// SearchProducts runs the filter query and applies the optional geo
// restriction against the retailers' stored coordinates.
func (c *Conf) SearchProducts(ctx context.Context, f Filter) ([]Result, error) {
	query, args, err := buildProductQuery(f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building search query: %w", err)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching products: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var p products.Product
		err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock,
			&p.CategoryID, &p.Image, &p.RetailerID, &p.WholesalerID,
			&p.AvailabilityDate, &p.IsLocalProduct, &p.CreatedAt, &p.UpdatedAt,
			&p.AverageRating)
		if err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		results = append(results, Result{Product: p})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}

	if f.Lat == nil || f.Lng == nil {
		return results, nil
	}

	nearby, err := c.nearbyRetailers(ctx, *f.Lat, *f.Lng, f.MaxDistanceKm)
	if err != nil {
		return nil, err
	}
	return RestrictToRetailers(results, nearby), nil
}

// RestrictToRetailers keeps results whose retailer appears in the ranked
// set and annotates each with the retailer's distance. Pure.
func RestrictToRetailers(results []Result, nearby []geo.Ranked) []Result {
	distances := make(map[string]float64, len(nearby))
	for _, r := range nearby {
		distances[r.ID] = r.DistanceKm
	}

	var kept []Result
	for _, res := range results {
		if res.RetailerID == nil {
			continue
		}
		d, ok := distances[*res.RetailerID]
		if !ok {
			continue
		}
		dist := d
		res.DistanceKm = &dist
		kept = append(kept, res)
	}
	return kept
}

func (c *Conf) nearbyRetailers(ctx context.Context, lat, lng, maxKm float64) ([]geo.Ranked, error) {
	retailers, err := c.users.ListRetailersWithLocation(ctx)
	if err != nil {
		return nil, err
	}
	points := make([]geo.Point, 0, len(retailers))
	for _, r := range retailers {
		points = append(points, geo.Point{ID: r.ID, Latitude: r.Latitude, Longitude: r.Longitude})
	}
	return geo.Nearby(lat, lng, points, maxKm), nil
}

// NearbyShops ranks retailers by distance from the given point and counts
// each one's listed products.
func (c *Conf) NearbyShops(ctx context.Context, lat, lng, maxKm float64) ([]Shop, error) {
	retailers, err := c.users.ListRetailersWithLocation(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]users.User, len(retailers))
	points := make([]geo.Point, 0, len(retailers))
	for _, r := range retailers {
		byID[r.ID] = r
		points = append(points, geo.Point{ID: r.ID, Latitude: r.Latitude, Longitude: r.Longitude})
	}

	shops := make([]Shop, 0)
	for _, ranked := range geo.Nearby(lat, lng, points, maxKm) {
		r := byID[ranked.ID]
		count, err := c.products.CountByRetailer(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		shops = append(shops, Shop{
			ID:           r.ID,
			Name:         r.Name,
			Address:      r.Address,
			Latitude:     r.Latitude,
			Longitude:    r.Longitude,
			DistanceKm:   ranked.DistanceKm,
			ProductCount: count,
		})
	}
	return shops, nil
}
