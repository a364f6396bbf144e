package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/otc-marketplace/backend/internal/http/dto"
	"github.com/otc-marketplace/backend/internal/middleware"
	"github.com/otc-marketplace/backend/internal/repositories"
	"github.com/otc-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

type AdminHandler struct {
	svc *services.AdminService
	log *zap.Logger
}

func NewAdminHandler(svc *services.AdminService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, log: log}
}

func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.svc.Stats(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: stats})
}

// ---- Users ----

// ListUsers — GET /admin/users?search=&role=&is_active=&date_from=&date_to=&sort_by=&sort_order=&page=&per_page=
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page, perPage, offset := pageParams(c)
	users, total, err := h.svc.ListUsers(c.UserContext(), repositories.UserFilter{
		Search:    c.Query("search"),
		Role:      queryString(c, "role"),
		IsActive:  queryBool(c, "is_active"),
		DateFrom:  queryDate(c, "date_from"),
		DateTo:    queryDate(c, "date_to"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
		Limit:     perPage,
		Offset:    offset,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.PageResponse{Items: users, Pagination: dto.NewPagination(page, perPage, total)})
}

func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	u, err := h.svc.GetUser(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: u})
}

func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Role == nil && req.IsActive == nil {
		return badRequest(c, "nothing to update")
	}

	u, err := h.svc.UpdateUser(c.UserContext(), middleware.GetTelegramUserID(c), id, req.Role, req.IsActive)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: u})
}

func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.svc.DeleteUser(c.UserContext(), middleware.GetTelegramUserID(c), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

// ---- Listings ----

// ListListings — GET /admin/listings?search=&category_id=&seller_id=&is_active=&is_featured=&min_price=&max_price=&date_from=&date_to=&sort_by=&sort_order=&page=&per_page=
func (h *AdminHandler) ListListings(c *fiber.Ctx) error {
	page, perPage, offset := pageParams(c)
	items, total, err := h.svc.ListListings(c.UserContext(), repositories.ListingFilter{
		Search:     c.Query("search"),
		CategoryID: queryInt64(c, "category_id"),
		SellerID:   queryInt64(c, "seller_id"),
		IsActive:   queryBool(c, "is_active"),
		IsFeatured: queryBool(c, "is_featured"),
		MinPrice:   queryFloat(c, "min_price"),
		MaxPrice:   queryFloat(c, "max_price"),
		DateFrom:   queryDate(c, "date_from"),
		DateTo:     queryDate(c, "date_to"),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
		Limit:      perPage,
		Offset:     offset,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.PageResponse{Items: items, Pagination: dto.NewPagination(page, perPage, total)})
}

func (h *AdminHandler) GetListing(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	l, err := h.svc.GetListing(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: l})
}

func (h *AdminHandler) UpdateListing(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req dto.UpdateListingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	l, err := h.svc.UpdateListing(c.UserContext(), middleware.GetTelegramUserID(c), id, repositories.ListingUpdate{
		Title:            req.Title,
		Description:      req.Description,
		Price:            req.Price,
		Currency:         req.Currency,
		CategoryID:       req.CategoryID,
		SubscribersCount: req.SubscribersCount,
		IsActive:         req.IsActive,
		IsFeatured:       req.IsFeatured,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: l})
}

func (h *AdminHandler) DeleteListing(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.svc.DeleteListing(c.UserContext(), middleware.GetTelegramUserID(c), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *AdminHandler) ToggleActive(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	v, err := h.svc.ToggleListingActive(c.UserContext(), middleware.GetTelegramUserID(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.ToggleResponse{ID: id, Value: v}})
}

func (h *AdminHandler) ToggleFeatured(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	v, err := h.svc.ToggleListingFeatured(c.UserContext(), middleware.GetTelegramUserID(c), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.ToggleResponse{ID: id, Value: v}})
}

// ---- History ----

// UserHistory — GET /admin/users/:id/history?page=&per_page=
func (h *AdminHandler) UserHistory(c *fiber.Ctx) error {
	return h.history(c, "user")
}

// ListingHistory — GET /admin/listings/:id/history?page=&per_page=
func (h *AdminHandler) ListingHistory(c *fiber.Ctx) error {
	return h.history(c, "listing")
}

func (h *AdminHandler) history(c *fiber.Ctx, entityType string) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	_, perPage, offset := pageParams(c)
	entries, err := h.svc.History(c.UserContext(), entityType, id, perPage, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: entries})
}
