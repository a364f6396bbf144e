package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/otc-marketplace/backend/internal/models"
	"github.com/otc-marketplace/backend/internal/repositories"
	"go.uber.org/zap"
)

var categoryNameRE = regexp.MustCompile(`^[a-z][a-z0-9_]{1,31}$`)

type CategoryService struct {
	categories CategoryStore
	audit      AuditLogger
	log        *zap.Logger
}

func NewCategoryService(categories CategoryStore, audit AuditLogger, log *zap.Logger) *CategoryService {
	return &CategoryService{categories: categories, audit: audit, log: log}
}

func (s *CategoryService) ListActive(ctx context.Context) ([]models.Category, error) {
	return s.categories.ListActive(ctx)
}

func (s *CategoryService) ListWithStats(ctx context.Context) ([]models.CategoryWithStats, error) {
	return s.categories.ListWithStats(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id int64) (*models.Category, error) {
	c, err := s.categories.GetByID(ctx, id)
	return c, fromRepo(err, "category")
}

func (s *CategoryService) Create(ctx context.Context, actorID int64, c *models.Category) error {
	c.Name = strings.ToLower(strings.TrimSpace(c.Name))
	c.DisplayName = strings.TrimSpace(c.DisplayName)
	if !categoryNameRE.MatchString(c.Name) {
		return invalid("name must be 2-32 lowercase letters, digits or underscores")
	}
	if c.DisplayName == "" {
		return invalid("display_name is required")
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return fromRepo(err, fmt.Sprintf("category %q", c.Name))
	}

	s.auditAdmin(ctx, actorID, "category_created", c.ID, map[string]any{"name": c.Name})
	return nil
}

func (s *CategoryService) Update(ctx context.Context, actorID, id int64, u repositories.CategoryUpdate) (*models.Category, error) {
	if u.Name != nil {
		name := strings.ToLower(strings.TrimSpace(*u.Name))
		if !categoryNameRE.MatchString(name) {
			return nil, invalid("name must be 2-32 lowercase letters, digits or underscores")
		}
		u.Name = &name
	}
	if u.DisplayName != nil {
		dn := strings.TrimSpace(*u.DisplayName)
		if dn == "" {
			return nil, invalid("display_name must not be empty")
		}
		u.DisplayName = &dn
	}
	c, err := s.categories.Update(ctx, id, u)
	if err != nil {
		return nil, fromRepo(err, "category")
	}

	s.auditAdmin(ctx, actorID, "category_updated", id, nil)
	return c, nil
}

// Delete refuses while any listing references the category.
func (s *CategoryService) Delete(ctx context.Context, actorID, id int64) error {
	n, err := s.categories.CountListings(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: category has %d listings", ErrConflict, n)
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return fromRepo(err, "category")
	}

	s.auditAdmin(ctx, actorID, "category_deleted", id, nil)
	return nil
}

func (s *CategoryService) auditAdmin(ctx context.Context, actorID int64, action string, id int64, meta map[string]any) {
	_ = s.audit.Log(ctx, models.AuditLog{
		ActorTelegramID: &actorID,
		ActorType:       models.ActorAdmin,
		Action:          action,
		EntityType:      "category",
		EntityID:        &id,
		Meta:            meta,
	})
}
