package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/otc-marketplace/backend/internal/events"
	"github.com/otc-marketplace/backend/internal/models"
	"github.com/otc-marketplace/backend/internal/rbac"
	"github.com/otc-marketplace/backend/internal/repositories"
	"go.uber.org/zap"
)

type ListingService struct {
	listings   ListingStore
	categories CategoryStore
	users      UserStore
	stats      StatsStore
	audit      AuditLogger
	publisher  events.Publisher
	log        *zap.Logger
}

func NewListingService(
	listings ListingStore,
	categories CategoryStore,
	users UserStore,
	stats StatsStore,
	audit AuditLogger,
	publisher events.Publisher,
	log *zap.Logger,
) *ListingService {
	return &ListingService{
		listings:   listings,
		categories: categories,
		users:      users,
		stats:      stats,
		audit:      audit,
		publisher:  publisher,
		log:        log,
	}
}

type CreateListingInput struct {
	CategoryID       int64
	Title            string
	Description      string
	Price            float64
	Currency         string
	SubscribersCount int
	ChannelUsername  *string
}

func (s *ListingService) Create(ctx context.Context, sellerID int64, in CreateListingInput) (*models.Listing, error) {
	cat, err := s.categories.GetByID(ctx, in.CategoryID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, invalid("unknown category")
	}
	if err != nil {
		return nil, err
	}
	if !cat.IsActive {
		return nil, invalid("category %q is not active", cat.Name)
	}

	l := &models.Listing{
		SellerID:         sellerID,
		CategoryID:       cat.ID,
		Title:            in.Title,
		Description:      in.Description,
		Price:            in.Price,
		Currency:         in.Currency,
		SubscribersCount: in.SubscribersCount,
		ChannelUsername:  in.ChannelUsername,
	}
	if l.ChannelUsername != nil && strings.TrimSpace(*l.ChannelUsername) == "" {
		l.ChannelUsername = nil
	}
	l.Normalize()
	if err := l.Validate(cat.Name); err != nil {
		return nil, invalid("%s", err.Error())
	}

	if err := s.listings.Create(ctx, l); err != nil {
		return nil, fromRepo(err, "listing")
	}
	l.CategoryName = cat.Name

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorTelegramID: &sellerID,
		ActorType:       models.ActorUser,
		Action:          "listing_created",
		EntityType:      "listing",
		EntityID:        &l.ID,
		Meta:            map[string]any{"category": cat.Name, "price": l.Price, "currency": l.Currency},
	})
	_ = s.publisher.Publish(ctx, events.TopicListing, events.Event{
		Type: events.EventListingCreated,
		Payload: map[string]any{
			"listing_id": l.ID,
			"seller_id":  sellerID,
			"category":   cat.Name,
			"title":      l.Title,
			"price":      l.Price,
			"currency":   l.Currency,
		},
	})

	s.log.Info("listing created", zap.Int64("listing_id", l.ID), zap.Int64("seller_id", sellerID))
	return l, nil
}

type ListingQuery struct {
	Category string
	Search   string
	Page     int
	PerPage  int
}

type ListingPage struct {
	Items   []models.Listing
	Total   int
	Page    int
	PerPage int
}

// ClampPage normalizes page (>=1) and perPage (1..100, default 20).
func ClampPage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}

// ListPublic returns active listings, newest first.
func (s *ListingService) ListPublic(ctx context.Context, q ListingQuery) (*ListingPage, error) {
	page, perPage := ClampPage(q.Page, q.PerPage)
	active := true
	f := repositories.ListingFilter{
		Search:   q.Search,
		IsActive: &active,
		Limit:    perPage,
		Offset:   (page - 1) * perPage,
	}
	if c := strings.TrimSpace(q.Category); c != "" {
		f.CategoryName = &c
	}

	items, total, err := s.listings.Search(ctx, f)
	if err != nil {
		return nil, err
	}
	return &ListingPage{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

// Get hides inactive listings from everyone except the seller and moderators.
func (s *ListingService) Get(ctx context.Context, id int64, viewerID int64, viewerRole string) (*models.Listing, error) {
	l, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "listing")
	}
	if !l.IsActive && l.SellerID != viewerID && !rbac.HasPermission(viewerRole, rbac.PermModerateListings) {
		return nil, fmt.Errorf("listing: %w", ErrNotFound)
	}
	return l, nil
}

func (s *ListingService) RegisterView(ctx context.Context, id int64) (int, error) {
	views, err := s.listings.IncrementViews(ctx, id)
	return views, fromRepo(err, "listing")
}

func (s *ListingService) ListBySeller(ctx context.Context, sellerID int64) ([]models.Listing, error) {
	items, _, err := s.listings.Search(ctx, repositories.ListingFilter{SellerID: &sellerID, Limit: 100})
	return items, err
}

// Delete is allowed to the seller and to moderators. The actor's role is read from the database.
func (s *ListingService) Delete(ctx context.Context, id int64, actorID int64) error {
	l, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return fromRepo(err, "listing")
	}
	actorType := models.ActorUser
	if l.SellerID != actorID {
		actor, err := s.users.GetByTelegramID(ctx, actorID)
		if err != nil {
			return fromRepo(err, "user")
		}
		if !rbac.HasPermission(actor.Role, rbac.PermModerateListings) {
			return ErrForbidden
		}
		actorType = models.ActorAdmin
	}

	if err := s.listings.Delete(ctx, id); err != nil {
		return fromRepo(err, "listing")
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorTelegramID: &actorID,
		ActorType:       actorType,
		Action:          "listing_deleted",
		EntityType:      "listing",
		EntityID:        &id,
		Meta:            map[string]any{"seller_id": l.SellerID, "title": l.Title},
	})
	_ = s.publisher.Publish(ctx, events.TopicListing, events.Event{
		Type:    events.EventListingDeleted,
		Payload: map[string]any{"listing_id": id},
	})
	return nil
}

func (s *ListingService) MarketStats(ctx context.Context) (*models.MarketStats, error) {
	return s.stats.Market(ctx)
}
