package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/otc-marketplace/backend/internal/auth"
	"github.com/otc-marketplace/backend/internal/config"
	"github.com/otc-marketplace/backend/internal/models"
	"github.com/otc-marketplace/backend/internal/rbac"
	"go.uber.org/zap"
)

type InitDataVerifier interface {
	Verify(raw string) (*auth.Identity, error)
}

type AuthService struct {
	verifier InitDataVerifier
	users    UserStore
	audit    AuditLogger
	revoked  auth.RevocationStore
	cfg      *config.Config
	log      *zap.Logger
}

func NewAuthService(
	verifier InitDataVerifier,
	users UserStore,
	audit AuditLogger,
	revoked auth.RevocationStore,
	cfg *config.Config,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		verifier: verifier,
		users:    users,
		audit:    audit,
		revoked:  revoked,
		cfg:      cfg,
		log:      log,
	}
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// Login verifies Telegram initData, upserts the account and issues a session token.
func (s *AuthService) Login(ctx context.Context, initData string) (*LoginResult, error) {
	ident, err := s.verifier.Verify(initData)
	if err != nil {
		var rej *auth.RejectionError
		if errors.As(err, &rej) {
			s.log.Debug("initData rejected", zap.String("kind", rej.Kind.Error()), zap.String("detail", rej.Detail))
		} else {
			s.log.Debug("initData rejected", zap.Error(err))
		}
		return nil, ErrUnauthorized
	}

	user, err := s.users.UpsertLogin(ctx, ident.ID,
		optional(ident.Username), optional(ident.FirstName), optional(ident.LastName),
		s.configuredRole(ident.ID))
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	token, expiresAt, err := auth.GenerateJWT(s.cfg.JWTSecret, user.TelegramUserID, user.Role, s.cfg.JWTExpiration)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorTelegramID: &user.TelegramUserID,
		ActorType:       models.ActorUser,
		Action:          "user_login",
		EntityType:      "user",
		EntityID:        &user.TelegramUserID,
	})

	s.log.Info("user logged in", zap.Int64("telegram_user_id", user.TelegramUserID), zap.String("role", user.Role))

	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

// Logout revokes the token id until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return nil
	}
	return s.revoked.Revoke(ctx, jti, expiresAt)
}

func (s *AuthService) CurrentUser(ctx context.Context, telegramID int64) (*models.User, error) {
	u, err := s.users.GetByTelegramID(ctx, telegramID)
	return u, fromRepo(err, "user")
}

// configuredRole is the minimum role granted by ADMIN_TELEGRAM_IDS / MODERATOR_TELEGRAM_IDS.
func (s *AuthService) configuredRole(telegramID int64) string {
	switch {
	case s.cfg.IsAdmin(telegramID):
		return rbac.RoleAdmin
	case s.cfg.IsModerator(telegramID):
		return rbac.RoleModerator
	default:
		return rbac.RoleUser
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
