package models

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MinTitleLength       = 5
	MaxTitleLength       = 200
	MinDescriptionLength = 10
	MaxDescriptionLength = 5000
	MinPrice             = 1.0
	MaxPrice             = 1_000_000.0
	DefaultCurrency      = "USD"
)

var SupportedCurrencies = []string{"USD", "EUR", "RUB", "TON", "USDT"}

func IsSupportedCurrency(c string) bool {
	for _, sc := range SupportedCurrencies {
		if sc == c {
			return true
		}
	}
	return false
}

type Listing struct {
	ID                 int64      `json:"id"`
	SellerID           int64      `json:"seller_id"`
	CategoryID         int64      `json:"category_id"`
	CategoryName       string     `json:"category"`
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	Price              float64    `json:"price"`
	Currency           string     `json:"currency"`
	SubscribersCount   int        `json:"subscribers_count"`
	ChannelUsername    *string    `json:"channel_username,omitempty"`
	ChannelSubscribers *int       `json:"channel_subscribers,omitempty"` // с t.me
	ChannelVerified    bool       `json:"channel_verified"`
	ChannelCheckedAt   *time.Time `json:"channel_checked_at,omitempty"`
	IsActive           bool       `json:"is_active"`
	IsFeatured         bool       `json:"is_featured"`
	Views              int        `json:"views"`
	SellerUsername     *string    `json:"seller_username,omitempty"`
	SellerFirstName    *string    `json:"seller_first_name,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

var channelUsernameRE = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{3,31}$`)

// NormalizeChannelUsername strips "@", "https://t.me/" and similar prefixes.
// Returns "" if the rest is not a valid public username.
func NormalizeChannelUsername(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"https://", "http://"} {
		s = strings.TrimPrefix(s, prefix)
	}
	for _, prefix := range []string{"t.me/s/", "t.me/", "telegram.me/", "@"} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.TrimSuffix(s, "/")
	if !channelUsernameRE.MatchString(s) {
		return ""
	}
	return strings.ToLower(s)
}

// Normalize trims text fields, rounds the price to cents and fills defaults.
func (l *Listing) Normalize() {
	l.Title = strings.TrimSpace(l.Title)
	l.Description = strings.TrimSpace(l.Description)
	l.Currency = strings.ToUpper(strings.TrimSpace(l.Currency))
	if l.Currency == "" {
		l.Currency = DefaultCurrency
	}
	l.Price = math.Round(l.Price*100) / 100
	if l.ChannelUsername != nil {
		if u := NormalizeChannelUsername(*l.ChannelUsername); u != "" {
			l.ChannelUsername = &u
		}
	}
}

// Validate checks a normalized listing against the rules of its category.
func (l *Listing) Validate(categoryName string) error {
	titleLen := utf8.RuneCountInString(l.Title)
	if titleLen < MinTitleLength {
		return fmt.Errorf("title must be at least %d characters", MinTitleLength)
	}
	if titleLen > MaxTitleLength {
		return fmt.Errorf("title must be at most %d characters", MaxTitleLength)
	}
	descLen := utf8.RuneCountInString(l.Description)
	if descLen < MinDescriptionLength {
		return fmt.Errorf("description must be at least %d characters", MinDescriptionLength)
	}
	if descLen > MaxDescriptionLength {
		return fmt.Errorf("description must be at most %d characters", MaxDescriptionLength)
	}
	if math.IsNaN(l.Price) || l.Price < MinPrice || l.Price > MaxPrice {
		return fmt.Errorf("price must be between %.1f and %.1f", MinPrice, MaxPrice)
	}
	if !IsSupportedCurrency(l.Currency) {
		return fmt.Errorf("unsupported currency %q", l.Currency)
	}
	if l.SubscribersCount < 0 {
		return fmt.Errorf("subscribers count must not be negative")
	}
	if categoryName == CategoryChannel {
		if l.SubscribersCount <= 0 {
			return fmt.Errorf("subscribers count is required for channels")
		}
		if l.ChannelUsername != nil && NormalizeChannelUsername(*l.ChannelUsername) == "" {
			return fmt.Errorf("invalid channel username")
		}
	} else if l.ChannelUsername != nil {
		return fmt.Errorf("channel username is only allowed for channel listings")
	}
	return nil
}
