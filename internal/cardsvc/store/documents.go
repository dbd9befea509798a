package store

import (
	"fmt"
	"time"

	"github.com/avvvet/pixelcard-services/internal/cardsvc/models"
)

// Timestamps are stored as fixed-width UTC ISO-8601 strings so the
// lexicographic order mongo sorts on matches chronological order.
const isoLayout = "2006-01-02T15:04:05.000000-07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

// parseTime accepts our own layout as well as any RFC 3339 variant, with
// or without fractional seconds.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

type cardDocument struct {
	ID          string `bson:"id"`
	ImageBase64 string `bson:"image_base64"`
	Prompt      string `bson:"prompt"`
	CreatedAt   string `bson:"created_at"`
	IsLiked     bool   `bson:"is_liked"`
}

func toCardDocument(c models.Card) cardDocument {
	return cardDocument{
		ID:          c.ID,
		ImageBase64: c.ImageBase64,
		Prompt:      c.Prompt,
		CreatedAt:   formatTime(c.CreatedAt),
		IsLiked:     c.IsLiked,
	}
}

func (d cardDocument) toModel() (models.Card, error) {
	created, err := parseTime(d.CreatedAt)
	if err != nil {
		return models.Card{}, fmt.Errorf("card %s: %w", d.ID, err)
	}
	return models.Card{
		ID:          d.ID,
		ImageBase64: d.ImageBase64,
		Prompt:      d.Prompt,
		CreatedAt:   created,
		IsLiked:     d.IsLiked,
	}, nil
}

type entryDocument struct {
	ID      string `bson:"id"`
	CardID  string `bson:"card_id"`
	LikedAt string `bson:"liked_at"`
}

func toEntryDocument(e models.CollectionEntry) entryDocument {
	return entryDocument{
		ID:      e.ID,
		CardID:  e.CardID,
		LikedAt: formatTime(e.LikedAt),
	}
}
