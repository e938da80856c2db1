package products

import "time"

// Product is a catalog entry. AverageRating is computed from feedback at
// query time, never stored.
type Product struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Price            float64    `json:"price"`
	Stock            int        `json:"stock"`
	CategoryID       string     `json:"categoryId"`
	Image            string     `json:"image"`
	RetailerID       *string    `json:"retailerId"`
	WholesalerID     *string    `json:"wholesalerId"`
	AvailabilityDate *time.Time `json:"availabilityDate"`
	IsLocalProduct   bool       `json:"isLocalProduct"`
	AverageRating    float64    `json:"averageRating"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Owner is the display reference for the listing retailer or supplying
// wholesaler on a product detail view.
type Owner struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewProduct is the creation payload.
type NewProduct struct {
	Name             string  `json:"name" validate:"required"`
	Description      string  `json:"description"`
	Price            float64 `json:"price" validate:"required,gt=0"`
	Stock            int     `json:"stock" validate:"min=0"`
	CategoryID       string  `json:"categoryId" validate:"required"`
	Image            string  `json:"image"`
	WholesalerID     *string `json:"wholesalerId"`
	AvailabilityDate *string `json:"availabilityDate"`
	IsLocalProduct   bool    `json:"isLocalProduct"`
}

// ProductUpdate is the partial-merge payload for product edits. Pointer
// fields distinguish "absent" from zero values.
type ProductUpdate struct {
	Name             *string  `json:"name"`
	Description      *string  `json:"description"`
	Price            *float64 `json:"price" validate:"omitempty,gt=0"`
	Stock            *int     `json:"stock" validate:"omitempty,min=0"`
	CategoryID       *string  `json:"categoryId"`
	Image            *string  `json:"image"`
	AvailabilityDate *string  `json:"availabilityDate"`
	IsLocalProduct   *bool    `json:"isLocalProduct"`
}

// ListFilter narrows catalog listings. Zero values mean "no filter".
type ListFilter struct {
	CategoryID string
	RetailerID string
	InStock    bool
	IsLocal    *bool
}

// Category is fixed reference data seeded by migration.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}
