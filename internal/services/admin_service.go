package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/otc-marketplace/backend/internal/events"
	"github.com/otc-marketplace/backend/internal/models"
	"github.com/otc-marketplace/backend/internal/rbac"
	"github.com/otc-marketplace/backend/internal/repositories"
	"go.uber.org/zap"
)

// AdminService backs the /admin routes. Role checks happen in middleware;
// this layer only enforces rules about the target.
type AdminService struct {
	users      UserStore
	listings   ListingStore
	categories CategoryStore
	stats      StatsStore
	audit      AuditTrail
	publisher  events.Publisher
	log        *zap.Logger
}

func NewAdminService(
	users UserStore,
	listings ListingStore,
	categories CategoryStore,
	stats StatsStore,
	audit AuditTrail,
	publisher events.Publisher,
	log *zap.Logger,
) *AdminService {
	return &AdminService{
		users:      users,
		listings:   listings,
		categories: categories,
		stats:      stats,
		audit:      audit,
		publisher:  publisher,
		log:        log,
	}
}

func (s *AdminService) Stats(ctx context.Context) (*models.AdminStats, error) {
	return s.stats.Admin(ctx)
}

// ---- Users ----

func (s *AdminService) ListUsers(ctx context.Context, f repositories.UserFilter) ([]models.UserWithStats, int, error) {
	if f.Role != nil && !rbac.IsValidRole(*f.Role) {
		return nil, 0, invalid("unknown role %q", *f.Role)
	}
	return s.users.List(ctx, f)
}

func (s *AdminService) GetUser(ctx context.Context, telegramID int64) (*models.UserWithStats, error) {
	u, err := s.users.GetWithStats(ctx, telegramID)
	return u, fromRepo(err, "user")
}

// UpdateUser changes role and/or is_active. An admin cannot demote or deactivate themselves.
func (s *AdminService) UpdateUser(ctx context.Context, actorID, telegramID int64, role *string, isActive *bool) (*models.User, error) {
	if role != nil {
		r := strings.ToLower(strings.TrimSpace(*role))
		if !rbac.IsValidRole(r) {
			return nil, invalid("unknown role %q", *role)
		}
		role = &r
	}
	if actorID == telegramID {
		if role != nil && *role != rbac.RoleAdmin {
			return nil, fmt.Errorf("%w: cannot change your own role", ErrForbidden)
		}
		if isActive != nil && !*isActive {
			return nil, fmt.Errorf("%w: cannot deactivate yourself", ErrForbidden)
		}
	}

	u, err := s.users.UpdateAdmin(ctx, telegramID, role, isActive)
	if err != nil {
		return nil, fromRepo(err, "user")
	}

	meta := map[string]any{}
	if role != nil {
		meta["role"] = *role
	}
	if isActive != nil {
		meta["is_active"] = *isActive
	}
	s.auditAdmin(ctx, actorID, "user_updated", "user", telegramID, meta)
	return u, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, actorID, telegramID int64) error {
	if actorID == telegramID {
		return fmt.Errorf("%w: cannot delete yourself", ErrForbidden)
	}
	if err := s.users.Delete(ctx, telegramID); err != nil {
		return fromRepo(err, "user")
	}
	s.auditAdmin(ctx, actorID, "user_deleted", "user", telegramID, nil)
	return nil
}

// ---- Listings ----

func (s *AdminService) ListListings(ctx context.Context, f repositories.ListingFilter) ([]models.Listing, int, error) {
	return s.listings.Search(ctx, f)
}

func (s *AdminService) GetListing(ctx context.Context, id int64) (*models.Listing, error) {
	l, err := s.listings.GetByID(ctx, id)
	return l, fromRepo(err, "listing")
}

// UpdateListing applies a partial update and re-validates the result.
func (s *AdminService) UpdateListing(ctx context.Context, actorID, id int64, u repositories.ListingUpdate) (*models.Listing, error) {
	current, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "listing")
	}

	merged := *current
	categoryName := current.CategoryName
	if u.CategoryID != nil && *u.CategoryID != current.CategoryID {
		cat, err := s.categories.GetByID(ctx, *u.CategoryID)
		if err != nil {
			return nil, invalid("unknown category")
		}
		categoryName = cat.Name
		merged.CategoryID = cat.ID
	}
	if u.Title != nil {
		merged.Title = *u.Title
	}
	if u.Description != nil {
		merged.Description = *u.Description
	}
	if u.Price != nil {
		merged.Price = *u.Price
	}
	if u.Currency != nil {
		merged.Currency = *u.Currency
	}
	if u.SubscribersCount != nil {
		merged.SubscribersCount = *u.SubscribersCount
	}
	if categoryName != models.CategoryChannel {
		merged.ChannelUsername = nil
	}
	merged.Normalize()
	if err := merged.Validate(categoryName); err != nil {
		return nil, invalid("%s", err.Error())
	}

	// Записываем нормализованные значения
	if u.Title != nil {
		u.Title = &merged.Title
	}
	if u.Description != nil {
		u.Description = &merged.Description
	}
	if u.Price != nil {
		u.Price = &merged.Price
	}
	if u.Currency != nil {
		u.Currency = &merged.Currency
	}

	l, err := s.listings.Update(ctx, id, u)
	if err != nil {
		return nil, fromRepo(err, "listing")
	}

	s.auditAdmin(ctx, actorID, "listing_updated", "listing", id, nil)
	_ = s.publisher.Publish(ctx, events.TopicListing, events.Event{
		Type:    events.EventListingUpdated,
		Payload: map[string]any{"listing_id": id, "is_active": l.IsActive},
	})
	return l, nil
}

func (s *AdminService) DeleteListing(ctx context.Context, actorID, id int64) error {
	if err := s.listings.Delete(ctx, id); err != nil {
		return fromRepo(err, "listing")
	}
	s.auditAdmin(ctx, actorID, "listing_deleted", "listing", id, nil)
	_ = s.publisher.Publish(ctx, events.TopicListing, events.Event{
		Type:    events.EventListingDeleted,
		Payload: map[string]any{"listing_id": id},
	})
	return nil
}

func (s *AdminService) ToggleListingActive(ctx context.Context, actorID, id int64) (bool, error) {
	v, err := s.listings.ToggleActive(ctx, id)
	if err != nil {
		return false, fromRepo(err, "listing")
	}
	s.auditAdmin(ctx, actorID, "listing_toggle_active", "listing", id, map[string]any{"is_active": v})
	return v, nil
}

func (s *AdminService) ToggleListingFeatured(ctx context.Context, actorID, id int64) (bool, error) {
	v, err := s.listings.ToggleFeatured(ctx, id)
	if err != nil {
		return false, fromRepo(err, "listing")
	}
	s.auditAdmin(ctx, actorID, "listing_toggle_featured", "listing", id, map[string]any{"is_featured": v})
	return v, nil
}

// History returns audit entries for a user or listing, newest first.
// Entries outlive the entity, so a deleted listing still has its history.
func (s *AdminService) History(ctx context.Context, entityType string, id int64, limit, offset int) ([]models.AuditLog, error) {
	if entityType != "user" && entityType != "listing" {
		return nil, invalid("unknown entity type %q", entityType)
	}
	return s.audit.GetByEntity(ctx, entityType, id, limit, offset)
}

func (s *AdminService) auditAdmin(ctx context.Context, actorID int64, action, entityType string, id int64, meta map[string]any) {
	_ = s.audit.Log(ctx, models.AuditLog{
		ActorTelegramID: &actorID,
		ActorType:       models.ActorAdmin,
		Action:          action,
		EntityType:      entityType,
		EntityID:        &id,
		Meta:            meta,
	})
}
