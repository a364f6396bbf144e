package models

import "time"

const MaxMessageLength = 2000

type Message struct {
	ID          int64     `json:"id"`
	SenderID    int64     `json:"sender_id"`
	RecipientID int64     `json:"recipient_id"`
	ListingID   int64     `json:"listing_id"`
	Body        string    `json:"message"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
	// Заполняются при выборке входящих
	SenderUsername *string `json:"sender_username,omitempty"`
	ListingTitle   *string `json:"listing_title,omitempty"`
}
