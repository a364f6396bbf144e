package events

import (
	"encoding/json"
	"testing"
)

func TestNotifyTargetRoundTrip(t *testing.T) {
	data, err := json.Marshal(NotifyEvent(279058397, "hello"))
	if err != nil {
		t.Fatal(err)
	}
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatal(err)
	}
	id, text, ok := NotifyTarget(e)
	if !ok || id != 279058397 || text != "hello" {
		t.Fatalf("got (%d, %q, %v)", id, text, ok)
	}
}

func TestNotifyTargetRejects(t *testing.T) {
	cases := map[string]Event{
		"wrong type":  {Type: EventListingCreated, Payload: map[string]any{"telegram_user_id": 1.0, "text": "x"}},
		"missing id":  {Type: EventBotNotification, Payload: map[string]any{"text": "x"}},
		"empty text":  {Type: EventBotNotification, Payload: map[string]any{"telegram_user_id": 1.0, "text": ""}},
		"string id":   {Type: EventBotNotification, Payload: map[string]any{"telegram_user_id": "1", "text": "x"}},
		"empty event": {},
	}
	for name, e := range cases {
		t.Run(name, func(t *testing.T) {
			if _, _, ok := NotifyTarget(e); ok {
				t.Fatal("expected rejection")
			}
		})
	}
}
