package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/otc-marketplace/backend/internal/http/dto"
	"github.com/otc-marketplace/backend/internal/middleware"
	"github.com/otc-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

type ListingHandler struct {
	svc *services.ListingService
	log *zap.Logger
}

func NewListingHandler(svc *services.ListingService, log *zap.Logger) *ListingHandler {
	return &ListingHandler{svc: svc, log: log}
}

// List — GET /listings?category=&search=&page=&per_page=
func (h *ListingHandler) List(c *fiber.Ctx) error {
	page, err := h.svc.ListPublic(c.UserContext(), services.ListingQuery{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Page:     c.QueryInt("page", 1),
		PerPage:  c.QueryInt("per_page", 20),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.PageResponse{
		Items:      page.Items,
		Pagination: dto.NewPagination(page.Page, page.PerPage, page.Total),
	})
}

func (h *ListingHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	l, err := h.svc.Get(c.UserContext(), id, middleware.GetTelegramUserID(c), middleware.GetRole(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: l})
}

func (h *ListingHandler) RegisterView(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	views, err := h.svc.RegisterView(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.ViewResponse{Views: views}})
}

func (h *ListingHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateListingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.CategoryID <= 0 {
		return badRequest(c, "category_id is required")
	}

	l, err := h.svc.Create(c.UserContext(), middleware.GetTelegramUserID(c), services.CreateListingInput{
		CategoryID:       req.CategoryID,
		Title:            req.Title,
		Description:      req.Description,
		Price:            req.Price,
		Currency:         req.Currency,
		SubscribersCount: req.SubscribersCount,
		ChannelUsername:  req.ChannelUsername,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: l})
}

func (h *ListingHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.svc.Delete(c.UserContext(), id, middleware.GetTelegramUserID(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *ListingHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.svc.MarketStats(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: stats})
}
