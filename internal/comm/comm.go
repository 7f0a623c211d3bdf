package comm

import (
	"encoding/json"
	"time"
)

// Subject carrying card change events between services.
const CardEventsSubject = "card.events"

const (
	CardCreated = "card.created"
	CardUpdated = "card.updated"
	CardDeleted = "card.deleted"
)

type WSMessage struct {
	Type     string          `json:"type"` // e.g. "cards-updated"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid,omitempty"`
}

// CardEvent is published after a card mutation succeeds. Listing views use
// it as a signal to refetch.
type CardEvent struct {
	Type      string    `json:"type"`
	CardID    string    `json:"card_id"`
	OwnerID   string    `json:"owner_id"`
	Timestamp time.Time `json:"timestamp"`
}
