package models

import "time"

// MarketStats is the public summary shown on the WebApp home screen.
type MarketStats struct {
	ActiveListings int            `json:"active_listings"`
	ActiveUsers    int            `json:"active_users"`
	TotalViews     int64          `json:"total_views"`
	AvgPrice       float64        `json:"avg_price"`
	Categories     map[string]int `json:"categories"`
	LastUpdated    time.Time      `json:"last_updated"`
}

type AdminStats struct {
	TotalUsers       int `json:"total_users"`
	ActiveUsers      int `json:"active_users"`
	TotalListings    int `json:"total_listings"`
	ActiveListings   int `json:"active_listings"`
	FeaturedListings int `json:"featured_listings"`
	TotalCategories  int `json:"total_categories"`
	UsersToday       int `json:"users_today"`
	ListingsToday    int `json:"listings_today"`
}
