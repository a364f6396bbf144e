package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/otc-marketplace/backend/internal/http/dto"
	"github.com/otc-marketplace/backend/internal/models"
)

// MetaHandler exposes static form limits so the WebApp validates like the server does.
type MetaHandler struct{}

func NewMetaHandler() *MetaHandler {
	return &MetaHandler{}
}

type ListingLimits struct {
	MinTitleLength       int     `json:"min_title_length"`
	MaxTitleLength       int     `json:"max_title_length"`
	MinDescriptionLength int     `json:"min_description_length"`
	MaxDescriptionLength int     `json:"max_description_length"`
	MinPrice             float64 `json:"min_price"`
	MaxPrice             float64 `json:"max_price"`
	MaxMessageLength     int     `json:"max_message_length"`
}

type MetaResponse struct {
	Currencies      []string      `json:"currencies"`
	DefaultCurrency string        `json:"default_currency"`
	Limits          ListingLimits `json:"limits"`
}

func (h *MetaHandler) Get(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: MetaResponse{
		Currencies:      models.SupportedCurrencies,
		DefaultCurrency: models.DefaultCurrency,
		Limits: ListingLimits{
			MinTitleLength:       models.MinTitleLength,
			MaxTitleLength:       models.MaxTitleLength,
			MinDescriptionLength: models.MinDescriptionLength,
			MaxDescriptionLength: models.MaxDescriptionLength,
			MinPrice:             models.MinPrice,
			MaxPrice:             models.MaxPrice,
			MaxMessageLength:     models.MaxMessageLength,
		},
	}})
}
