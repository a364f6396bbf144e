package events

import "context"

// Pub/Sub channels
const (
	TopicListing = "events:listing"
	TopicNotify  = "events:notify"
)

// Event types
const (
	EventListingCreated  = "listing_created"
	EventListingDeleted  = "listing_deleted"
	EventListingUpdated  = "listing_updated"
	EventBotNotification = "bot_notification"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}

// NotifyEvent builds a bot_notification for the notify bridge.
func NotifyEvent(telegramUserID int64, text string) Event {
	return Event{
		Type: EventBotNotification,
		Payload: map[string]any{
			"telegram_user_id": telegramUserID,
			"text":             text,
		},
	}
}

// NotifyTarget extracts the recipient and text from a bot_notification.
// Payload numbers arrive as float64 after a JSON round trip.
func NotifyTarget(e Event) (int64, string, bool) {
	if e.Type != EventBotNotification {
		return 0, "", false
	}
	text, _ := e.Payload["text"].(string)
	var id int64
	switch v := e.Payload["telegram_user_id"].(type) {
	case float64:
		id = int64(v)
	case int64:
		id = v
	case int:
		id = int64(v)
	}
	if id == 0 || text == "" {
		return 0, "", false
	}
	return id, text, true
}
