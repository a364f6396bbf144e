package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/otc-marketplace/backend/internal/http/dto"
	"github.com/otc-marketplace/backend/internal/middleware"
	"github.com/otc-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

type MessageHandler struct {
	svc *services.MessageService
	log *zap.Logger
}

func NewMessageHandler(svc *services.MessageService, log *zap.Logger) *MessageHandler {
	return &MessageHandler{svc: svc, log: log}
}

// Contact — POST /contact {listing_id, message}
func (h *MessageHandler) Contact(c *fiber.Ctx) error {
	var req dto.ContactSellerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	msg, err := h.svc.ContactSeller(c.UserContext(), middleware.GetTelegramUserID(c), req.ListingID, req.Message)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: msg})
}
