package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/otc-marketplace/backend/internal/models"
)

const categoryColumns = `id, name, display_name, icon, description, is_active, created_at`

type CategoryRepo struct {
	pool *pgxpool.Pool
}

func NewCategoryRepo(pool *pgxpool.Pool) *CategoryRepo {
	return &CategoryRepo{pool: pool}
}

func scanCategory(row scanner) (*models.Category, error) {
	var c models.Category
	if err := row.Scan(&c.ID, &c.Name, &c.DisplayName, &c.Icon, &c.Description, &c.IsActive, &c.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *CategoryRepo) ListActive(ctx context.Context) ([]models.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cats := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, *c)
	}
	return cats, rows.Err()
}

// ListWithStats returns all categories, inactive included, with listing counts.
func (r *CategoryRepo) ListWithStats(ctx context.Context) ([]models.CategoryWithStats, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.name, c.display_name, c.icon, c.description, c.is_active, c.created_at,
		       (SELECT count(*) FROM listings l WHERE l.category_id = c.id)
		FROM categories c ORDER BY c.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cats := []models.CategoryWithStats{}
	for rows.Next() {
		var c models.CategoryWithStats
		if err := rows.Scan(&c.ID, &c.Name, &c.DisplayName, &c.Icon, &c.Description, &c.IsActive, &c.CreatedAt, &c.ListingsCount); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *CategoryRepo) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	return scanCategory(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
}

func (r *CategoryRepo) GetByName(ctx context.Context, name string) (*models.Category, error) {
	return scanCategory(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE name = $1`, name))
}

func (r *CategoryRepo) Create(ctx context.Context, c *models.Category) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO categories (name, display_name, icon, description, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, c.Name, c.DisplayName, c.Icon, c.Description, c.IsActive).Scan(&c.ID, &c.CreatedAt)
	return mapErr(err)
}

type CategoryUpdate struct {
	Name        *string
	DisplayName *string
	Icon        *string
	Description *string
	IsActive    *bool
}

func (r *CategoryRepo) Update(ctx context.Context, id int64, u CategoryUpdate) (*models.Category, error) {
	return scanCategory(r.pool.QueryRow(ctx, `
		UPDATE categories SET
			name = COALESCE($2, name),
			display_name = COALESCE($3, display_name),
			icon = COALESCE($4, icon),
			description = COALESCE($5, description),
			is_active = COALESCE($6, is_active)
		WHERE id = $1
		RETURNING `+categoryColumns, id, u.Name, u.DisplayName, u.Icon, u.Description, u.IsActive))
}

func (r *CategoryRepo) CountListings(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM listings WHERE category_id = $1`, id).Scan(&n)
	return n, err
}

func (r *CategoryRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
