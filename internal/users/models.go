package users

import "time"

// User is a marketplace account. Password never serializes.
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Password   string    `json:"-"`
	Phone      string    `json:"phone"`
	Role       string    `json:"role"`
	Address    string    `json:"address"`
	Latitude   *float64  `json:"latitude"`
	Longitude  *float64  `json:"longitude"`
	IsVerified bool      `json:"isVerified"`
	Provider   string    `json:"provider,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// NewUser is the registration payload.
type NewUser struct {
	Name     string  `json:"name" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
	Phone    string  `json:"phone" validate:"required"`
	Role     string  `json:"role" validate:"required"`
	Address  string  `json:"address"`
	Location *LatLng `json:"location"`
}

// LatLng is an explicit coordinate supplied by the client.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ProfileUpdate is the partial-merge payload for profile edits.
type ProfileUpdate struct {
	Name     string  `json:"name"`
	Phone    string  `json:"phone"`
	Address  string  `json:"address"`
	Location *LatLng `json:"location"`
	// Latitude/Longitude are resolved from Address by the handler when the
	// address changed and no explicit location was sent.
	Latitude  *float64 `json:"-"`
	Longitude *float64 `json:"-"`
}

// SocialUser is the social-login payload.
type SocialUser struct {
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name" validate:"required"`
	Provider   string `json:"provider" validate:"required"`
	ProviderID string `json:"providerId"`
}
