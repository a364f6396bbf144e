package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/otc-marketplace/backend/internal/models"
)

const listingSelect = `
	SELECT l.id, l.seller_id, l.category_id, c.name, l.title, l.description, l.price::float8, l.currency,
	       l.subscribers_count, l.channel_username, l.channel_subscribers, l.channel_verified, l.channel_checked_at,
	       l.is_active, l.is_featured, l.views, u.username, u.first_name, l.created_at, l.updated_at
	FROM listings l
	JOIN categories c ON c.id = l.category_id
	JOIN users u ON u.telegram_user_id = l.seller_id`

const listingFrom = `
	FROM listings l
	JOIN categories c ON c.id = l.category_id
	JOIN users u ON u.telegram_user_id = l.seller_id`

type ListingRepo struct {
	pool *pgxpool.Pool
}

func NewListingRepo(pool *pgxpool.Pool) *ListingRepo {
	return &ListingRepo{pool: pool}
}

func scanListing(row scanner) (*models.Listing, error) {
	var l models.Listing
	err := row.Scan(&l.ID, &l.SellerID, &l.CategoryID, &l.CategoryName, &l.Title, &l.Description, &l.Price, &l.Currency,
		&l.SubscribersCount, &l.ChannelUsername, &l.ChannelSubscribers, &l.ChannelVerified, &l.ChannelCheckedAt,
		&l.IsActive, &l.IsFeatured, &l.Views, &l.SellerUsername, &l.SellerFirstName, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &l, nil
}

func (r *ListingRepo) Create(ctx context.Context, l *models.Listing) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO listings (seller_id, category_id, title, description, price, currency, subscribers_count, channel_username)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, is_active, is_featured, views, created_at, updated_at
	`, l.SellerID, l.CategoryID, l.Title, l.Description, l.Price, l.Currency, l.SubscribersCount, l.ChannelUsername,
	).Scan(&l.ID, &l.IsActive, &l.IsFeatured, &l.Views, &l.CreatedAt, &l.UpdatedAt)
	return mapErr(err)
}

func (r *ListingRepo) GetByID(ctx context.Context, id int64) (*models.Listing, error) {
	return scanListing(r.pool.QueryRow(ctx, listingSelect+` WHERE l.id = $1`, id))
}

type ListingFilter struct {
	CategoryName *string
	CategoryID   *int64
	SellerID     *int64
	Search       string
	IsActive     *bool
	IsFeatured   *bool
	MinPrice     *float64
	MaxPrice     *float64
	DateFrom     *time.Time
	DateTo       *time.Time
	SortBy       string // created_at / price / views / title
	SortOrder    string // asc / desc
	Limit        int
	Offset       int
}

var listingSortColumns = map[string]string{
	"created_at": "l.created_at",
	"price":      "l.price",
	"views":      "l.views",
	"title":      "l.title",
}

// Search returns a page of listings and the total number of matches.
func (r *ListingRepo) Search(ctx context.Context, f ListingFilter) ([]models.Listing, int, error) {
	var where []string
	args := []any{}
	argIdx := 1

	if f.CategoryName != nil {
		where = append(where, fmt.Sprintf("c.name = $%d", argIdx))
		args = append(args, *f.CategoryName)
		argIdx++
	}
	if f.CategoryID != nil {
		where = append(where, fmt.Sprintf("l.category_id = $%d", argIdx))
		args = append(args, *f.CategoryID)
		argIdx++
	}
	if f.SellerID != nil {
		where = append(where, fmt.Sprintf("l.seller_id = $%d", argIdx))
		args = append(args, *f.SellerID)
		argIdx++
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, fmt.Sprintf("(l.title ILIKE $%d OR l.description ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+s+"%")
		argIdx++
	}
	if f.IsActive != nil {
		where = append(where, fmt.Sprintf("l.is_active = $%d", argIdx))
		args = append(args, *f.IsActive)
		argIdx++
	}
	if f.IsFeatured != nil {
		where = append(where, fmt.Sprintf("l.is_featured = $%d", argIdx))
		args = append(args, *f.IsFeatured)
		argIdx++
	}
	if f.MinPrice != nil {
		where = append(where, fmt.Sprintf("l.price >= $%d", argIdx))
		args = append(args, *f.MinPrice)
		argIdx++
	}
	if f.MaxPrice != nil {
		where = append(where, fmt.Sprintf("l.price <= $%d", argIdx))
		args = append(args, *f.MaxPrice)
		argIdx++
	}
	if f.DateFrom != nil {
		where = append(where, fmt.Sprintf("l.created_at >= $%d", argIdx))
		args = append(args, *f.DateFrom)
		argIdx++
	}
	if f.DateTo != nil {
		where = append(where, fmt.Sprintf("l.created_at <= $%d", argIdx))
		args = append(args, *f.DateTo)
		argIdx++
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*)`+listingFrom+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderCol, ok := listingSortColumns[f.SortBy]
	if !ok {
		orderCol = "l.created_at"
	}
	orderDir := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		orderDir = "ASC"
	}
	limit, offset := normalizePage(f.Limit, f.Offset)

	// Featured first, then the requested order.
	query := listingSelect + whereSQL +
		fmt.Sprintf(" ORDER BY l.is_featured DESC, %s %s, l.id DESC LIMIT $%d OFFSET $%d", orderCol, orderDir, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	listings := []models.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, 0, err
		}
		listings = append(listings, *l)
	}
	return listings, total, rows.Err()
}

// IncrementViews returns the new view count.
func (r *ListingRepo) IncrementViews(ctx context.Context, id int64) (int, error) {
	var views int
	err := r.pool.QueryRow(ctx, `UPDATE listings SET views = views + 1 WHERE id = $1 AND is_active RETURNING views`, id).Scan(&views)
	return views, mapErr(err)
}

type ListingUpdate struct {
	Title            *string
	Description      *string
	Price            *float64
	Currency         *string
	CategoryID       *int64
	SubscribersCount *int
	IsActive         *bool
	IsFeatured       *bool
}

func (r *ListingRepo) Update(ctx context.Context, id int64, u ListingUpdate) (*models.Listing, error) {
	var sets []string
	args := []any{}
	argIdx := 1

	add := func(col string, v any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, argIdx))
		args = append(args, v)
		argIdx++
	}
	if u.Title != nil {
		add("title", *u.Title)
	}
	if u.Description != nil {
		add("description", *u.Description)
	}
	if u.Price != nil {
		add("price", *u.Price)
	}
	if u.Currency != nil {
		add("currency", *u.Currency)
	}
	if u.CategoryID != nil {
		add("category_id", *u.CategoryID)
	}
	if u.SubscribersCount != nil {
		add("subscribers_count", *u.SubscribersCount)
	}
	if u.IsActive != nil {
		add("is_active", *u.IsActive)
	}
	if u.IsFeatured != nil {
		add("is_featured", *u.IsFeatured)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	query := fmt.Sprintf(`UPDATE listings SET %s, updated_at = now() WHERE id = $%d`, strings.Join(sets, ", "), argIdx)
	args = append(args, id)
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *ListingRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleActive flips is_active and returns the new value.
func (r *ListingRepo) ToggleActive(ctx context.Context, id int64) (bool, error) {
	var v bool
	err := r.pool.QueryRow(ctx, `UPDATE listings SET is_active = NOT is_active, updated_at = now() WHERE id = $1 RETURNING is_active`, id).Scan(&v)
	return v, mapErr(err)
}

// ToggleFeatured flips is_featured and returns the new value.
func (r *ListingRepo) ToggleFeatured(ctx context.Context, id int64) (bool, error) {
	var v bool
	err := r.pool.QueryRow(ctx, `UPDATE listings SET is_featured = NOT is_featured, updated_at = now() WHERE id = $1 RETURNING is_featured`, id).Scan(&v)
	return v, mapErr(err)
}

// ChannelsDueForRefresh returns active channel listings never checked or checked before olderThan.
func (r *ListingRepo) ChannelsDueForRefresh(ctx context.Context, olderThan time.Time, limit int) ([]models.Listing, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, listingSelect+`
		WHERE l.is_active AND l.channel_username IS NOT NULL
		  AND (l.channel_checked_at IS NULL OR l.channel_checked_at < $1)
		ORDER BY l.channel_checked_at NULLS FIRST
		LIMIT $2
	`, olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := []models.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}

// UpdateChannelStats stores the t.me snapshot. subscribers may be nil when the page had no counter.
func (r *ListingRepo) UpdateChannelStats(ctx context.Context, id int64, subscribers *int, verified bool) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE listings SET channel_subscribers = $2, channel_verified = $3, channel_checked_at = now()
		WHERE id = $1
	`, id, subscribers, verified)
	return err
}
