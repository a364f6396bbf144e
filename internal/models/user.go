package models

import "time"

// User is a marketplace account keyed by the Telegram user id.
type User struct {
	TelegramUserID int64      `json:"telegram_user_id"`
	Username       *string    `json:"username,omitempty"`
	FirstName      *string    `json:"first_name,omitempty"`
	LastName       *string    `json:"last_name,omitempty"`
	Role           string     `json:"role"` // user / moderator / admin
	IsActive       bool       `json:"is_active"`
	PayoutWallet   *string    `json:"payout_wallet,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
}

// UserWithStats is the admin view of an account.
type UserWithStats struct {
	User
	ListingsCount int `json:"listings_count"`
}
