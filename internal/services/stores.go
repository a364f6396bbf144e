package services

import (
	"context"
	"time"

	"github.com/otc-marketplace/backend/internal/models"
	"github.com/otc-marketplace/backend/internal/repositories"
)

// Interfaces below are satisfied by the pgx repositories.

type UserStore interface {
	UpsertLogin(ctx context.Context, telegramID int64, username, firstName, lastName *string, minRole string) (*models.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	SetPayoutWallet(ctx context.Context, telegramID int64, wallet *string) (*models.User, error)
	List(ctx context.Context, f repositories.UserFilter) ([]models.UserWithStats, int, error)
	GetWithStats(ctx context.Context, telegramID int64) (*models.UserWithStats, error)
	UpdateAdmin(ctx context.Context, telegramID int64, role *string, isActive *bool) (*models.User, error)
	Delete(ctx context.Context, telegramID int64) error
}

type ListingStore interface {
	Create(ctx context.Context, l *models.Listing) error
	GetByID(ctx context.Context, id int64) (*models.Listing, error)
	Search(ctx context.Context, f repositories.ListingFilter) ([]models.Listing, int, error)
	IncrementViews(ctx context.Context, id int64) (int, error)
	Update(ctx context.Context, id int64, u repositories.ListingUpdate) (*models.Listing, error)
	Delete(ctx context.Context, id int64) error
	ToggleActive(ctx context.Context, id int64) (bool, error)
	ToggleFeatured(ctx context.Context, id int64) (bool, error)
	ChannelsDueForRefresh(ctx context.Context, olderThan time.Time, limit int) ([]models.Listing, error)
	UpdateChannelStats(ctx context.Context, id int64, subscribers *int, verified bool) error
}

type CategoryStore interface {
	ListActive(ctx context.Context) ([]models.Category, error)
	ListWithStats(ctx context.Context) ([]models.CategoryWithStats, error)
	GetByID(ctx context.Context, id int64) (*models.Category, error)
	GetByName(ctx context.Context, name string) (*models.Category, error)
	Create(ctx context.Context, c *models.Category) error
	Update(ctx context.Context, id int64, u repositories.CategoryUpdate) (*models.Category, error)
	CountListings(ctx context.Context, id int64) (int, error)
	Delete(ctx context.Context, id int64) error
}

type MessageStore interface {
	Create(ctx context.Context, m *models.Message) error
	Inbox(ctx context.Context, recipientID int64) ([]models.Message, error)
	MarkRead(ctx context.Context, id, recipientID int64) error
}

type StatsStore interface {
	Market(ctx context.Context) (*models.MarketStats, error)
	Admin(ctx context.Context) (*models.AdminStats, error)
}

type AuditLogger interface {
	Log(ctx context.Context, entry models.AuditLog) error
}

// AuditTrail also reads entries back for the admin history views.
type AuditTrail interface {
	AuditLogger
	GetByEntity(ctx context.Context, entityType string, entityID int64, limit, offset int) ([]models.AuditLog, error)
}
