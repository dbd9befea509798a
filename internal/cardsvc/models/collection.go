package models

import (
	"time"

	"github.com/google/uuid"
)

// CollectionEntry records one like event for a card.
type CollectionEntry struct {
	ID      string    `json:"id"`
	CardID  string    `json:"card_id"` // weak reference to Card.ID
	LikedAt time.Time `json:"liked_at"`
}

func NewCollectionEntry(cardID string) CollectionEntry {
	return CollectionEntry{
		ID:      uuid.New().String(),
		CardID:  cardID,
		LikedAt: time.Now().UTC(),
	}
}
