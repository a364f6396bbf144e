package services

import (
	"context"
	"errors"

	"github.com/otc-marketplace/backend/internal/models"
	"github.com/otc-marketplace/backend/internal/ton"
	"go.uber.org/zap"
)

// WalletService stores the address a seller wants to be paid to. No funds move through it.
type WalletService struct {
	users UserStore
	audit AuditLogger
	log   *zap.Logger
}

func NewWalletService(users UserStore, audit AuditLogger, log *zap.Logger) *WalletService {
	return &WalletService{users: users, audit: audit, log: log}
}

func (s *WalletService) SetPayoutWallet(ctx context.Context, telegramID int64, raw string) (*models.User, error) {
	addr, err := ton.NormalizeAddress(raw)
	if errors.Is(err, ton.ErrInvalidAddress) {
		return nil, invalid("invalid TON wallet address")
	}
	if err != nil {
		return nil, err
	}

	u, err := s.users.SetPayoutWallet(ctx, telegramID, &addr)
	if err != nil {
		return nil, fromRepo(err, "user")
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorTelegramID: &telegramID,
		ActorType:       models.ActorUser,
		Action:          "payout_wallet_set",
		EntityType:      "user",
		EntityID:        &telegramID,
		Meta:            map[string]any{"address": addr},
	})
	return u, nil
}

func (s *WalletService) ClearPayoutWallet(ctx context.Context, telegramID int64) (*models.User, error) {
	u, err := s.users.SetPayoutWallet(ctx, telegramID, nil)
	if err != nil {
		return nil, fromRepo(err, "user")
	}

	_ = s.audit.Log(ctx, models.AuditLog{
		ActorTelegramID: &telegramID,
		ActorType:       models.ActorUser,
		Action:          "payout_wallet_cleared",
		EntityType:      "user",
		EntityID:        &telegramID,
	})
	return u, nil
}
