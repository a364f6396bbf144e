package handlers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/otc-marketplace/backend/internal/middleware"
	"github.com/otc-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

// respondError maps service errors to statuses. Unknown errors are logged and hidden.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return middleware.ErrorJSON(c, fiber.StatusBadRequest, strings.TrimPrefix(err.Error(), services.ErrValidation.Error()+": "))
	case errors.Is(err, services.ErrNotFound):
		return middleware.ErrorJSON(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrConflict):
		return middleware.ErrorJSON(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		return middleware.ErrorJSON(c, fiber.StatusUnauthorized, "invalid auth data")
	case errors.Is(err, services.ErrAccountDisabled):
		return middleware.ErrorJSON(c, fiber.StatusForbidden, "account is disabled")
	case errors.Is(err, services.ErrForbidden):
		return middleware.ErrorJSON(c, fiber.StatusForbidden, err.Error())
	default:
		log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
		return middleware.ErrorJSON(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return middleware.ErrorJSON(c, fiber.StatusBadRequest, msg)
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// Optional query parsers: a missing or malformed value yields nil.

func queryInt64(c *fiber.Ctx, key string) *int64 {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func queryFloat(c *fiber.Ctx, key string) *float64 {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

func queryBool(c *fiber.Ctx, key string) *bool {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

func queryString(c *fiber.Ctx, key string) *string {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil
	}
	return &v
}

// queryDate accepts RFC3339 or YYYY-MM-DD.
func queryDate(c *fiber.Ctx, key string) *time.Time {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	return nil
}

// pageParams reads page/per_page and returns page, perPage, offset.
func pageParams(c *fiber.Ctx) (int, int, int) {
	page, perPage := services.ClampPage(c.QueryInt("page", 1), c.QueryInt("per_page", 20))
	return page, perPage, (page - 1) * perPage
}
