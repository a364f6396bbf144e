package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/otc-marketplace/backend/internal/models"
)

type StatsRepo struct {
	pool *pgxpool.Pool
}

func NewStatsRepo(pool *pgxpool.Pool) *StatsRepo {
	return &StatsRepo{pool: pool}
}

func (r *StatsRepo) Market(ctx context.Context) (*models.MarketStats, error) {
	s := models.MarketStats{Categories: map[string]int{}, LastUpdated: time.Now().UTC()}
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM listings WHERE is_active),
			(SELECT count(*) FROM users WHERE is_active),
			(SELECT COALESCE(sum(views), 0) FROM listings),
			(SELECT COALESCE(avg(price), 0)::float8 FROM listings WHERE is_active)
	`).Scan(&s.ActiveListings, &s.ActiveUsers, &s.TotalViews, &s.AvgPrice)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT c.name, count(l.id)
		FROM categories c
		LEFT JOIN listings l ON l.category_id = c.id AND l.is_active
		WHERE c.is_active
		GROUP BY c.name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		s.Categories[name] = n
	}
	return &s, rows.Err()
}

func (r *StatsRepo) Admin(ctx context.Context) (*models.AdminStats, error) {
	var s models.AdminStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM users WHERE is_active),
			(SELECT count(*) FROM listings),
			(SELECT count(*) FROM listings WHERE is_active),
			(SELECT count(*) FROM listings WHERE is_featured),
			(SELECT count(*) FROM categories),
			(SELECT count(*) FROM users WHERE created_at >= date_trunc('day', now())),
			(SELECT count(*) FROM listings WHERE created_at >= date_trunc('day', now()))
	`).Scan(&s.TotalUsers, &s.ActiveUsers, &s.TotalListings, &s.ActiveListings, &s.FeaturedListings,
		&s.TotalCategories, &s.UsersToday, &s.ListingsToday)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
