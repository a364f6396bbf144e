package models

import (
	"time"

	"github.com/google/uuid"
)

// Actor types
const (
	ActorUser   = "user"
	ActorAdmin  = "admin"
	ActorSystem = "system"
)

type AuditLog struct {
	ID              uuid.UUID `json:"id"`
	ActorTelegramID *int64    `json:"actor_telegram_id,omitempty"`
	ActorType       string    `json:"actor_type"`
	Action          string    `json:"action"`
	EntityType      string    `json:"entity_type"`
	EntityID        *int64    `json:"entity_id,omitempty"`
	Meta            any       `json:"meta,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
