package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/otc-marketplace/backend/internal/auth"
	"github.com/otc-marketplace/backend/internal/config"
	"github.com/otc-marketplace/backend/internal/models"
	"github.com/otc-marketplace/backend/internal/rbac"
	"github.com/otc-marketplace/backend/internal/repositories"
	"go.uber.org/zap"
)

const (
	CtxTelegramUserID = "telegram_user_id"
	CtxRole           = "role"
	CtxTokenID        = "token_id"
	CtxTokenExpiresAt = "token_expires_at"
)

// UserLookup is satisfied by *repositories.UserRepo.
type UserLookup interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
	if authHeader == "" || tokenStr == authHeader || tokenStr == "" {
		return "", false
	}
	return tokenStr, true
}

// Authenticate validates a session token and rejects revoked ones.
func Authenticate(ctx context.Context, cfg *config.Config, revoked auth.RevocationStore, tokenStr string) (*auth.Claims, error) {
	claims, err := auth.ParseJWT(cfg.JWTSecret, tokenStr)
	if err != nil {
		return nil, err
	}
	if revoked != nil && claims.ID != "" {
		isRevoked, err := revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if isRevoked {
			return nil, errors.New("token revoked")
		}
	}
	return claims, nil
}

func AuthMiddleware(cfg *config.Config, revoked auth.RevocationStore, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") == "" {
			return ErrorJSON(c, fiber.StatusUnauthorized, "missing authorization header")
		}
		tokenStr, ok := BearerToken(c)
		if !ok {
			return ErrorJSON(c, fiber.StatusUnauthorized, "invalid authorization format")
		}

		claims, err := Authenticate(c.UserContext(), cfg, revoked, tokenStr)
		if err != nil {
			log.Debug("token rejected", zap.Error(err))
			return ErrorJSON(c, fiber.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(CtxTelegramUserID, claims.TelegramUserID)
		c.Locals(CtxRole, claims.Role)
		c.Locals(CtxTokenID, claims.ID)
		if claims.ExpiresAt != nil {
			c.Locals(CtxTokenExpiresAt, claims.ExpiresAt.Time)
		}

		return c.Next()
	}
}

func GetTelegramUserID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(CtxTelegramUserID).(int64)
	return id
}

// GetRole returns the role from the database if RequirePermission ran, otherwise the token's role.
func GetRole(c *fiber.Ctx) string {
	role, _ := c.Locals(CtxRole).(string)
	return role
}

func GetTokenID(c *fiber.Ctx) string {
	id, _ := c.Locals(CtxTokenID).(string)
	return id
}

func GetTokenExpiresAt(c *fiber.Ctx) time.Time {
	t, _ := c.Locals(CtxTokenExpiresAt).(time.Time)
	return t
}

// RequirePermission loads the caller's current role from the database,
// so demotions and deactivations apply before the token expires.
func RequirePermission(users UserLookup, permission string, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := users.GetByTelegramID(c.UserContext(), GetTelegramUserID(c))
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrorJSON(c, fiber.StatusUnauthorized, "user not found")
		}
		if err != nil {
			log.Error("failed to load user role", zap.Error(err))
			return ErrorJSON(c, fiber.StatusInternalServerError, "internal server error")
		}
		if !u.IsActive {
			return ErrorJSON(c, fiber.StatusForbidden, "account is disabled")
		}
		if !rbac.HasPermission(u.Role, permission) {
			return ErrorJSON(c, fiber.StatusForbidden, "insufficient permissions")
		}

		c.Locals(CtxRole, u.Role)
		return c.Next()
	}
}
