package comm

import (
	"time"
)

const CardEventsSubject = "card.events"

// Card event types published on CardEventsSubject.
const (
	EventCardGenerated = "card-generated"
	EventCardLiked     = "card-liked"
	EventCardUnliked   = "card-unliked"
)

type CardEvent struct {
	Type       string    `json:"type"`
	CardID     string    `json:"card_id"`
	Prompt     string    `json:"prompt,omitempty"`
	Liked      bool      `json:"liked"`
	Timestamp  time.Time `json:"timestamp"`
	InstanceId string    `json:"instance_id"`
}
