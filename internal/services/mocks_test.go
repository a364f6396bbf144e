package services

import (
	"context"
	"time"

	"github.com/otc-marketplace/backend/internal/auth"
	"github.com/otc-marketplace/backend/internal/events"
	"github.com/otc-marketplace/backend/internal/models"
	"github.com/otc-marketplace/backend/internal/repositories"
	"github.com/otc-marketplace/backend/internal/statsparser"
	"github.com/stretchr/testify/mock"
)

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) UpsertLogin(ctx context.Context, telegramID int64, username, firstName, lastName *string, minRole string) (*models.User, error) {
	args := m.Called(ctx, telegramID, username, firstName, lastName, minRole)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserStore) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	args := m.Called(ctx, telegramID)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserStore) SetPayoutWallet(ctx context.Context, telegramID int64, wallet *string) (*models.User, error) {
	args := m.Called(ctx, telegramID, wallet)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserStore) List(ctx context.Context, f repositories.UserFilter) ([]models.UserWithStats, int, error) {
	args := m.Called(ctx, f)
	users, _ := args.Get(0).([]models.UserWithStats)
	return users, args.Int(1), args.Error(2)
}

func (m *mockUserStore) GetWithStats(ctx context.Context, telegramID int64) (*models.UserWithStats, error) {
	args := m.Called(ctx, telegramID)
	u, _ := args.Get(0).(*models.UserWithStats)
	return u, args.Error(1)
}

func (m *mockUserStore) UpdateAdmin(ctx context.Context, telegramID int64, role *string, isActive *bool) (*models.User, error) {
	args := m.Called(ctx, telegramID, role, isActive)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUserStore) Delete(ctx context.Context, telegramID int64) error {
	return m.Called(ctx, telegramID).Error(0)
}

type mockListingStore struct{ mock.Mock }

func (m *mockListingStore) Create(ctx context.Context, l *models.Listing) error {
	return m.Called(ctx, l).Error(0)
}

func (m *mockListingStore) GetByID(ctx context.Context, id int64) (*models.Listing, error) {
	args := m.Called(ctx, id)
	l, _ := args.Get(0).(*models.Listing)
	return l, args.Error(1)
}

func (m *mockListingStore) Search(ctx context.Context, f repositories.ListingFilter) ([]models.Listing, int, error) {
	args := m.Called(ctx, f)
	items, _ := args.Get(0).([]models.Listing)
	return items, args.Int(1), args.Error(2)
}

func (m *mockListingStore) IncrementViews(ctx context.Context, id int64) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *mockListingStore) Update(ctx context.Context, id int64, u repositories.ListingUpdate) (*models.Listing, error) {
	args := m.Called(ctx, id, u)
	l, _ := args.Get(0).(*models.Listing)
	return l, args.Error(1)
}

func (m *mockListingStore) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockListingStore) ToggleActive(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockListingStore) ToggleFeatured(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockListingStore) ChannelsDueForRefresh(ctx context.Context, olderThan time.Time, limit int) ([]models.Listing, error) {
	args := m.Called(ctx, olderThan, limit)
	items, _ := args.Get(0).([]models.Listing)
	return items, args.Error(1)
}

func (m *mockListingStore) UpdateChannelStats(ctx context.Context, id int64, subscribers *int, verified bool) error {
	return m.Called(ctx, id, subscribers, verified).Error(0)
}

type mockCategoryStore struct{ mock.Mock }

func (m *mockCategoryStore) ListActive(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	cats, _ := args.Get(0).([]models.Category)
	return cats, args.Error(1)
}

func (m *mockCategoryStore) ListWithStats(ctx context.Context) ([]models.CategoryWithStats, error) {
	args := m.Called(ctx)
	cats, _ := args.Get(0).([]models.CategoryWithStats)
	return cats, args.Error(1)
}

func (m *mockCategoryStore) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Category)
	return c, args.Error(1)
}

func (m *mockCategoryStore) GetByName(ctx context.Context, name string) (*models.Category, error) {
	args := m.Called(ctx, name)
	c, _ := args.Get(0).(*models.Category)
	return c, args.Error(1)
}

func (m *mockCategoryStore) Create(ctx context.Context, c *models.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCategoryStore) Update(ctx context.Context, id int64, u repositories.CategoryUpdate) (*models.Category, error) {
	args := m.Called(ctx, id, u)
	c, _ := args.Get(0).(*models.Category)
	return c, args.Error(1)
}

func (m *mockCategoryStore) CountListings(ctx context.Context, id int64) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *mockCategoryStore) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockMessageStore struct{ mock.Mock }

func (m *mockMessageStore) Create(ctx context.Context, msg *models.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *mockMessageStore) Inbox(ctx context.Context, recipientID int64) ([]models.Message, error) {
	args := m.Called(ctx, recipientID)
	msgs, _ := args.Get(0).([]models.Message)
	return msgs, args.Error(1)
}

func (m *mockMessageStore) MarkRead(ctx context.Context, id, recipientID int64) error {
	return m.Called(ctx, id, recipientID).Error(0)
}

type mockStatsStore struct{ mock.Mock }

func (m *mockStatsStore) Market(ctx context.Context) (*models.MarketStats, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*models.MarketStats)
	return s, args.Error(1)
}

func (m *mockStatsStore) Admin(ctx context.Context) (*models.AdminStats, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*models.AdminStats)
	return s, args.Error(1)
}

// recordingAudit and recordingPublisher keep everything they receive.

type recordingAudit struct{ entries []models.AuditLog }

func (a *recordingAudit) Log(_ context.Context, entry models.AuditLog) error {
	a.entries = append(a.entries, entry)
	return nil
}

func (a *recordingAudit) GetByEntity(_ context.Context, entityType string, entityID int64, limit, offset int) ([]models.AuditLog, error) {
	out := []models.AuditLog{}
	for i := len(a.entries) - 1; i >= 0; i-- {
		e := a.entries[i]
		if e.EntityType == entityType && e.EntityID != nil && *e.EntityID == entityID {
			out = append(out, e)
		}
	}
	if offset >= len(out) {
		return []models.AuditLog{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (a *recordingAudit) actions() []string {
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type published struct {
	topic string
	event events.Event
}

type recordingPublisher struct {
	events []published
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event events.Event) error {
	p.events = append(p.events, published{topic: topic, event: event})
	return p.err
}

type mockRevocationStore struct{ mock.Mock }

var _ auth.RevocationStore = (*mockRevocationStore)(nil)

func (m *mockRevocationStore) Revoke(ctx context.Context, jti string, until time.Time) error {
	return m.Called(ctx, jti, until).Error(0)
}

func (m *mockRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

type mockFetcher struct{ mock.Mock }

func (m *mockFetcher) Fetch(ctx context.Context, username string) (*statsparser.ChannelSnapshot, error) {
	args := m.Called(ctx, username)
	s, _ := args.Get(0).(*statsparser.ChannelSnapshot)
	return s, args.Error(1)
}

func ptr[T any](v T) *T { return &v }
