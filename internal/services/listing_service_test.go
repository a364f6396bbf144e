package services

import (
	"context"
	"testing"

	"github.com/otc-marketplace/backend/internal/events"
	"github.com/otc-marketplace/backend/internal/models"
	"github.com/otc-marketplace/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type listingFixture struct {
	svc        *ListingService
	listings   *mockListingStore
	categories *mockCategoryStore
	users      *mockUserStore
	stats      *mockStatsStore
	audit      *recordingAudit
	pub        *recordingPublisher
}

func newListingFixture() *listingFixture {
	f := &listingFixture{
		listings:   &mockListingStore{},
		categories: &mockCategoryStore{},
		users:      &mockUserStore{},
		stats:      &mockStatsStore{},
		audit:      &recordingAudit{},
		pub:        &recordingPublisher{},
	}
	f.svc = NewListingService(f.listings, f.categories, f.users, f.stats, f.audit, f.pub, zap.NewNop())
	return f
}

var (
	channelCategory = &models.Category{ID: 1, Name: models.CategoryChannel, DisplayName: "Channels", IsActive: true}
	giftCategory    = &models.Category{ID: 3, Name: models.CategoryGift, DisplayName: "Gifts", IsActive: true}
)

func TestListingService_CreateChannel(t *testing.T) {
	f := newListingFixture()
	f.categories.On("GetByID", mock.Anything, int64(1)).Return(channelCategory, nil)
	f.listings.On("Create", mock.Anything, mock.MatchedBy(func(l *models.Listing) bool {
		return l.SellerID == 42 &&
			l.Title == "Crypto news channel" &&
			l.Price == 150.5 &&
			l.Currency == "USD" &&
			l.ChannelUsername != nil && *l.ChannelUsername == "cryptonews"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Listing).ID = 7
	}).Return(nil).Once()

	l, err := f.svc.Create(context.Background(), 42, CreateListingInput{
		CategoryID:       1,
		Title:            "  Crypto news channel ",
		Description:      "Daily crypto digest, organic audience",
		Price:            150.499,
		SubscribersCount: 12000,
		ChannelUsername:  ptr("https://t.me/CryptoNews"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), l.ID)
	assert.Equal(t, models.CategoryChannel, l.CategoryName)

	assert.Equal(t, []string{"listing_created"}, f.audit.actions())
	require.Len(t, f.pub.events, 1)
	assert.Equal(t, events.TopicListing, f.pub.events[0].topic)
	assert.Equal(t, events.EventListingCreated, f.pub.events[0].event.Type)
	assert.Equal(t, int64(7), f.pub.events[0].event.Payload["listing_id"])
	f.listings.AssertExpectations(t)
}

func TestListingService_CreateValidation(t *testing.T) {
	valid := CreateListingInput{
		CategoryID:  3,
		Title:       "Rare plush pepe",
		Description: "Limited collectible gift, transferable",
		Price:       25,
	}

	tests := []struct {
		name   string
		mutate func(*CreateListingInput)
	}{
		{"short title", func(in *CreateListingInput) { in.Title = " abc " }},
		{"short description", func(in *CreateListingInput) { in.Description = "too short" }},
		{"price too low", func(in *CreateListingInput) { in.Price = 0.5 }},
		{"price too high", func(in *CreateListingInput) { in.Price = 1_000_001 }},
		{"bad currency", func(in *CreateListingInput) { in.Currency = "BTC" }},
		{"channel username on gift", func(in *CreateListingInput) { in.ChannelUsername = ptr("@somechannel") }},
		{"channel without subscribers", func(in *CreateListingInput) { in.CategoryID = 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newListingFixture()
			f.categories.On("GetByID", mock.Anything, int64(1)).Return(channelCategory, nil)
			f.categories.On("GetByID", mock.Anything, int64(3)).Return(giftCategory, nil)

			in := valid
			tt.mutate(&in)
			_, err := f.svc.Create(context.Background(), 42, in)
			assert.ErrorIs(t, err, ErrValidation)
			f.listings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			assert.Empty(t, f.pub.events)
		})
	}
}

func TestListingService_CreateUnknownOrInactiveCategory(t *testing.T) {
	f := newListingFixture()
	f.categories.On("GetByID", mock.Anything, int64(99)).Return(nil, repositories.ErrNotFound)
	f.categories.On("GetByID", mock.Anything, int64(4)).Return(&models.Category{ID: 4, Name: "other", IsActive: false}, nil)

	in := CreateListingInput{Title: "Something nice", Description: "A long enough description", Price: 10}

	in.CategoryID = 99
	_, err := f.svc.Create(context.Background(), 42, in)
	assert.ErrorIs(t, err, ErrValidation)

	in.CategoryID = 4
	_, err = f.svc.Create(context.Background(), 42, in)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListingService_ListPublic(t *testing.T) {
	f := newListingFixture()
	active := true
	category := "gift"
	f.listings.On("Search", mock.Anything, repositories.ListingFilter{
		CategoryName: &category,
		Search:       "pepe",
		IsActive:     &active,
		Limit:        20,
		Offset:       20,
	}).Return([]models.Listing{{ID: 1}}, 45, nil).Once()

	page, err := f.svc.ListPublic(context.Background(), ListingQuery{Category: "gift", Search: "pepe", Page: 2, PerPage: 500})
	require.NoError(t, err)
	assert.Equal(t, 45, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 20, page.PerPage)
	f.listings.AssertExpectations(t)
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		page, perPage         int
		wantPage, wantPerPage int
	}{
		{0, 0, 1, 20},
		{-3, 10, 1, 10},
		{2, 100, 2, 100},
		{5, 101, 5, 20},
	}
	for _, tt := range tests {
		p, pp := ClampPage(tt.page, tt.perPage)
		assert.Equal(t, tt.wantPage, p)
		assert.Equal(t, tt.wantPerPage, pp)
	}
}

func TestListingService_GetHidesInactive(t *testing.T) {
	f := newListingFixture()
	f.listings.On("GetByID", mock.Anything, int64(5)).Return(&models.Listing{ID: 5, SellerID: 42, IsActive: false}, nil)

	_, err := f.svc.Get(context.Background(), 5, 7, "user")
	assert.ErrorIs(t, err, ErrNotFound)

	l, err := f.svc.Get(context.Background(), 5, 42, "user")
	require.NoError(t, err)
	assert.Equal(t, int64(5), l.ID)

	_, err = f.svc.Get(context.Background(), 5, 7, "moderator")
	assert.NoError(t, err)
}

func TestListingService_RegisterView(t *testing.T) {
	f := newListingFixture()
	f.listings.On("IncrementViews", mock.Anything, int64(5)).Return(11, nil)
	f.listings.On("IncrementViews", mock.Anything, int64(6)).Return(0, repositories.ErrNotFound)

	views, err := f.svc.RegisterView(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 11, views)

	_, err = f.svc.RegisterView(context.Background(), 6)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListingService_Delete(t *testing.T) {
	listing := &models.Listing{ID: 5, SellerID: 42, Title: "Channel", IsActive: true}

	t.Run("seller", func(t *testing.T) {
		f := newListingFixture()
		f.listings.On("GetByID", mock.Anything, int64(5)).Return(listing, nil)
		f.listings.On("Delete", mock.Anything, int64(5)).Return(nil).Once()

		require.NoError(t, f.svc.Delete(context.Background(), 5, 42))
		f.users.AssertNotCalled(t, "GetByTelegramID", mock.Anything, mock.Anything)
		require.Len(t, f.pub.events, 1)
		assert.Equal(t, events.EventListingDeleted, f.pub.events[0].event.Type)
		assert.Equal(t, models.ActorUser, f.audit.entries[0].ActorType)
	})

	t.Run("moderator", func(t *testing.T) {
		f := newListingFixture()
		f.listings.On("GetByID", mock.Anything, int64(5)).Return(listing, nil)
		f.users.On("GetByTelegramID", mock.Anything, int64(9)).Return(&models.User{TelegramUserID: 9, Role: "moderator", IsActive: true}, nil)
		f.listings.On("Delete", mock.Anything, int64(5)).Return(nil).Once()

		require.NoError(t, f.svc.Delete(context.Background(), 5, 9))
		assert.Equal(t, models.ActorAdmin, f.audit.entries[0].ActorType)
	})

	t.Run("stranger", func(t *testing.T) {
		f := newListingFixture()
		f.listings.On("GetByID", mock.Anything, int64(5)).Return(listing, nil)
		f.users.On("GetByTelegramID", mock.Anything, int64(7)).Return(&models.User{TelegramUserID: 7, Role: "user", IsActive: true}, nil)

		assert.ErrorIs(t, f.svc.Delete(context.Background(), 5, 7), ErrForbidden)
		f.listings.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		assert.Empty(t, f.pub.events)
	})

	t.Run("missing", func(t *testing.T) {
		f := newListingFixture()
		f.listings.On("GetByID", mock.Anything, int64(6)).Return(nil, repositories.ErrNotFound)
		assert.ErrorIs(t, f.svc.Delete(context.Background(), 6, 42), ErrNotFound)
	})
}
