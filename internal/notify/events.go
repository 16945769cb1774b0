package notify

import (
	"encoding/json"
	"time"
)

const (
	TopicKeysDelivered = "bot.keys.delivered"
	EventKeysDelivered = "KeysDelivered"
)

// Envelope is the wire format on the delivery topic. The chat transport
// consumes these and renders the message to the user.
type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"`
	Payload      json.RawMessage `json:"payload"`
}

type KeyInfo struct {
	Serial string `json:"serial"`
	Name   string `json:"name"`
	Type   string `json:"type"`
}

type KeysDeliveredPayload struct {
	UserID      int64     `json:"user_id"`
	OrderID     string    `json:"order_id"`
	ProductName string    `json:"product_name"`
	Keys        []KeyInfo `json:"keys"`
}
