package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/otc-marketplace/backend/internal/http/dto"
	"github.com/otc-marketplace/backend/internal/middleware"
	"github.com/otc-marketplace/backend/internal/models"
	"github.com/otc-marketplace/backend/internal/repositories"
	"github.com/otc-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

type CategoryHandler struct {
	svc *services.CategoryService
	log *zap.Logger
}

func NewCategoryHandler(svc *services.CategoryService, log *zap.Logger) *CategoryHandler {
	return &CategoryHandler{svc: svc, log: log}
}

// List returns active categories (public).
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.svc.ListActive(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: cats})
}

// ---- Admin ----

func (h *CategoryHandler) AdminList(c *fiber.Ctx) error {
	cats, err := h.svc.ListWithStats(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: cats})
}

func (h *CategoryHandler) AdminGet(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	cat, err := h.svc.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: cat})
}

func (h *CategoryHandler) AdminCreate(c *fiber.Ctx) error {
	var req dto.CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	cat := &models.Category{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Icon:        req.Icon,
		Description: req.Description,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	if err := h.svc.Create(c.UserContext(), middleware.GetTelegramUserID(c), cat); err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: cat})
}

func (h *CategoryHandler) AdminUpdate(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	var req dto.UpdateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	cat, err := h.svc.Update(c.UserContext(), middleware.GetTelegramUserID(c), id, repositories.CategoryUpdate{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Icon:        req.Icon,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: cat})
}

func (h *CategoryHandler) AdminDelete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.svc.Delete(c.UserContext(), middleware.GetTelegramUserID(c), id); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
