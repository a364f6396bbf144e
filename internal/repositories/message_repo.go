package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/otc-marketplace/backend/internal/models"
)

const InboxLimit = 50

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Create(ctx context.Context, m *models.Message) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO messages (sender_id, recipient_id, listing_id, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_read, created_at
	`, m.SenderID, m.RecipientID, m.ListingID, m.Body).Scan(&m.ID, &m.IsRead, &m.CreatedAt)
	return mapErr(err)
}

// Inbox returns the newest messages addressed to recipientID.
func (r *MessageRepo) Inbox(ctx context.Context, recipientID int64) ([]models.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.sender_id, m.recipient_id, m.listing_id, m.body, m.is_read, m.created_at,
		       u.username, l.title
		FROM messages m
		JOIN users u ON u.telegram_user_id = m.sender_id
		JOIN listings l ON l.id = m.listing_id
		WHERE m.recipient_id = $1
		ORDER BY m.created_at DESC
		LIMIT $2
	`, recipientID, InboxLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.ListingID, &m.Body, &m.IsRead, &m.CreatedAt,
			&m.SenderUsername, &m.ListingTitle); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MarkRead only touches messages owned by recipientID.
func (r *MessageRepo) MarkRead(ctx context.Context, id, recipientID int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE messages SET is_read = TRUE WHERE id = $1 AND recipient_id = $2`, id, recipientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
