package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/otc-marketplace/backend/internal/http/dto"
	"github.com/otc-marketplace/backend/internal/middleware"
	"github.com/otc-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

type AuthHandler struct {
	svc *services.AuthService
	log *zap.Logger
}

func NewAuthHandler(svc *services.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log}
}

func (h *AuthHandler) TelegramAuth(c *fiber.Ctx) error {
	var req dto.AuthTelegramRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	req.InitData = strings.TrimSpace(req.InitData)
	if req.InitData == "" {
		return badRequest(c, "init_data is required")
	}

	res, err := h.svc.Login(c.UserContext(), req.InitData)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(dto.AuthResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User:      res.User,
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.svc.Logout(c.UserContext(), middleware.GetTokenID(c), middleware.GetTokenExpiresAt(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
