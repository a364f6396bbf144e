package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/otc-marketplace/backend/internal/http/dto"
	"github.com/otc-marketplace/backend/internal/middleware"
	"github.com/otc-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

// UserHandler serves the /me routes.
type UserHandler struct {
	auth     *services.AuthService
	listings *services.ListingService
	messages *services.MessageService
	wallets  *services.WalletService
	log      *zap.Logger
}

func NewUserHandler(
	auth *services.AuthService,
	listings *services.ListingService,
	messages *services.MessageService,
	wallets *services.WalletService,
	log *zap.Logger,
) *UserHandler {
	return &UserHandler{auth: auth, listings: listings, messages: messages, wallets: wallets, log: log}
}

func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	user, err := h.auth.CurrentUser(c.UserContext(), middleware.GetTelegramUserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: user})
}

func (h *UserHandler) MyListings(c *fiber.Ctx) error {
	items, err := h.listings.ListBySeller(c.UserContext(), middleware.GetTelegramUserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: items})
}

func (h *UserHandler) MyMessages(c *fiber.Ctx) error {
	msgs, err := h.messages.Inbox(c.UserContext(), middleware.GetTelegramUserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: msgs})
}

func (h *UserHandler) MarkMessageRead(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.messages.MarkRead(c.UserContext(), id, middleware.GetTelegramUserID(c)); err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *UserHandler) SetWallet(c *fiber.Ctx) error {
	var req dto.SetPayoutWalletRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.WalletAddress == "" {
		return badRequest(c, "wallet_address is required")
	}

	user, err := h.wallets.SetPayoutWallet(c.UserContext(), middleware.GetTelegramUserID(c), req.WalletAddress)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: user})
}

func (h *UserHandler) ClearWallet(c *fiber.Ctx) error {
	user, err := h.wallets.ClearPayoutWallet(c.UserContext(), middleware.GetTelegramUserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: user})
}
