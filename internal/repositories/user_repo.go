package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/otc-marketplace/backend/internal/models"
)

const userColumns = `telegram_user_id, username, first_name, last_name, role, is_active, payout_wallet,
	created_at, updated_at, last_login_at`

// roleRankSQL orders roles so an upsert never demotes an account.
const roleRankSQL = `(CASE %s WHEN 'admin' THEN 3 WHEN 'moderator' THEN 2 ELSE 1 END)`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.TelegramUserID, &u.Username, &u.FirstName, &u.LastName, &u.Role, &u.IsActive,
		&u.PayoutWallet, &u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// UpsertLogin creates the account on first login and refreshes names and last_login_at afterwards.
// minRole is applied only if it ranks above the stored role.
func (r *UserRepo) UpsertLogin(ctx context.Context, telegramID int64, username, firstName, lastName *string, minRole string) (*models.User, error) {
	query := fmt.Sprintf(`
		INSERT INTO users (telegram_user_id, username, first_name, last_name, role, last_login_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (telegram_user_id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			role = CASE WHEN %s > %s THEN EXCLUDED.role ELSE users.role END,
			last_login_at = now(),
			updated_at = now()
		RETURNING %s
	`, fmt.Sprintf(roleRankSQL, "EXCLUDED.role"), fmt.Sprintf(roleRankSQL, "users.role"), userColumns)

	return scanUser(r.pool.QueryRow(ctx, query, telegramID, username, firstName, lastName, minRole))
}

func (r *UserRepo) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE telegram_user_id = $1`, telegramID))
}

func (r *UserRepo) SetPayoutWallet(ctx context.Context, telegramID int64, wallet *string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET payout_wallet = $2, updated_at = now()
		WHERE telegram_user_id = $1
		RETURNING `+userColumns, telegramID, wallet))
}

type UserFilter struct {
	Search    string
	Role      *string
	IsActive  *bool
	DateFrom  *time.Time
	DateTo    *time.Time
	SortBy    string // created_at / last_login_at / username
	SortOrder string // asc / desc
	Limit     int
	Offset    int
}

var userSortColumns = map[string]string{
	"created_at":    "u.created_at",
	"last_login_at": "u.last_login_at",
	"username":      "u.username",
}

func (r *UserRepo) List(ctx context.Context, f UserFilter) ([]models.UserWithStats, int, error) {
	var where []string
	args := []any{}
	argIdx := 1

	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, fmt.Sprintf("(u.username ILIKE $%d OR u.first_name ILIKE $%d OR u.last_name ILIKE $%d)", argIdx, argIdx, argIdx))
		args = append(args, "%"+s+"%")
		argIdx++
	}
	if f.Role != nil {
		where = append(where, fmt.Sprintf("u.role = $%d", argIdx))
		args = append(args, *f.Role)
		argIdx++
	}
	if f.IsActive != nil {
		where = append(where, fmt.Sprintf("u.is_active = $%d", argIdx))
		args = append(args, *f.IsActive)
		argIdx++
	}
	if f.DateFrom != nil {
		where = append(where, fmt.Sprintf("u.created_at >= $%d", argIdx))
		args = append(args, *f.DateFrom)
		argIdx++
	}
	if f.DateTo != nil {
		where = append(where, fmt.Sprintf("u.created_at <= $%d", argIdx))
		args = append(args, *f.DateTo)
		argIdx++
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users u`+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	orderCol, ok := userSortColumns[f.SortBy]
	if !ok {
		orderCol = "u.created_at"
	}
	orderDir := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		orderDir = "ASC"
	}
	limit, offset := normalizePage(f.Limit, f.Offset)

	query := `
		SELECT u.telegram_user_id, u.username, u.first_name, u.last_name, u.role, u.is_active, u.payout_wallet,
		       u.created_at, u.updated_at, u.last_login_at,
		       (SELECT count(*) FROM listings l WHERE l.seller_id = u.telegram_user_id) AS listings_count
		FROM users u` + whereSQL +
		fmt.Sprintf(" ORDER BY %s %s NULLS LAST LIMIT $%d OFFSET $%d", orderCol, orderDir, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := []models.UserWithStats{}
	for rows.Next() {
		var u models.UserWithStats
		if err := rows.Scan(&u.TelegramUserID, &u.Username, &u.FirstName, &u.LastName, &u.Role, &u.IsActive,
			&u.PayoutWallet, &u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt, &u.ListingsCount); err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

func (r *UserRepo) GetWithStats(ctx context.Context, telegramID int64) (*models.UserWithStats, error) {
	var u models.UserWithStats
	err := r.pool.QueryRow(ctx, `
		SELECT u.telegram_user_id, u.username, u.first_name, u.last_name, u.role, u.is_active, u.payout_wallet,
		       u.created_at, u.updated_at, u.last_login_at,
		       (SELECT count(*) FROM listings l WHERE l.seller_id = u.telegram_user_id)
		FROM users u WHERE u.telegram_user_id = $1
	`, telegramID).Scan(&u.TelegramUserID, &u.Username, &u.FirstName, &u.LastName, &u.Role, &u.IsActive,
		&u.PayoutWallet, &u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt, &u.ListingsCount)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// UpdateAdmin changes role and/or is_active. Nil fields are left untouched.
func (r *UserRepo) UpdateAdmin(ctx context.Context, telegramID int64, role *string, isActive *bool) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET
			role = COALESCE($2, role),
			is_active = COALESCE($3, is_active),
			updated_at = now()
		WHERE telegram_user_id = $1
		RETURNING `+userColumns, telegramID, role, isActive))
}

func (r *UserRepo) Delete(ctx context.Context, telegramID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE telegram_user_id = $1`, telegramID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
