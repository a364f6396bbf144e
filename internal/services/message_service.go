package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/otc-marketplace/backend/internal/events"
	"github.com/otc-marketplace/backend/internal/models"
	"github.com/otc-marketplace/backend/internal/repositories"
	"go.uber.org/zap"
)

type MessageService struct {
	messages  MessageStore
	listings  ListingStore
	users     UserStore
	publisher events.Publisher
	log       *zap.Logger
}

func NewMessageService(messages MessageStore, listings ListingStore, users UserStore, publisher events.Publisher, log *zap.Logger) *MessageService {
	return &MessageService{
		messages:  messages,
		listings:  listings,
		users:     users,
		publisher: publisher,
		log:       log,
	}
}

// ContactSeller stores a message for the listing's seller and asks the bot to notify them.
func (s *MessageService) ContactSeller(ctx context.Context, senderID, listingID int64, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if listingID <= 0 {
		return nil, invalid("listing_id is required")
	}
	if body == "" {
		return nil, invalid("message is required")
	}
	if utf8.RuneCountInString(body) > models.MaxMessageLength {
		return nil, invalid("message must be at most %d characters", models.MaxMessageLength)
	}

	listing, err := s.listings.GetByID(ctx, listingID)
	if errors.Is(err, repositories.ErrNotFound) || (err == nil && !listing.IsActive) {
		return nil, fmt.Errorf("listing: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if listing.SellerID == senderID {
		return nil, invalid("cannot contact yourself")
	}

	msg := &models.Message{
		SenderID:    senderID,
		RecipientID: listing.SellerID,
		ListingID:   listingID,
		Body:        body,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fromRepo(err, "message")
	}

	senderName := "A buyer"
	if sender, err := s.users.GetByTelegramID(ctx, senderID); err == nil && sender.Username != nil {
		senderName = "@" + *sender.Username
	}
	text := fmt.Sprintf("%s is interested in your listing %q:\n\n%s", senderName, listing.Title, body)
	if err := s.publisher.Publish(ctx, events.TopicNotify, events.NotifyEvent(listing.SellerID, text)); err != nil {
		s.log.Warn("failed to publish seller notification", zap.Int64("message_id", msg.ID), zap.Error(err))
	}

	return msg, nil
}

func (s *MessageService) Inbox(ctx context.Context, recipientID int64) ([]models.Message, error) {
	return s.messages.Inbox(ctx, recipientID)
}

func (s *MessageService) MarkRead(ctx context.Context, id, recipientID int64) error {
	return fromRepo(s.messages.MarkRead(ctx, id, recipientID), "message")
}
