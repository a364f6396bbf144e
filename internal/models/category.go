package models

import "time"

// Seeded category names. Listing rules depend on CategoryChannel.
const (
	CategoryChannel = "channel"
	CategoryAccount = "account"
	CategoryGift    = "gift"
	CategoryOther   = "other"
)

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Icon        *string   `json:"icon,omitempty"`
	Description *string   `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

type CategoryWithStats struct {
	Category
	ListingsCount int `json:"listings_count"`
}
