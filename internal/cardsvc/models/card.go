package models

import (
	"encoding/base64"
	"time"

	"github.com/google/uuid"
)

// Card is a generated pixel-art image with its prompt and like status.
type Card struct {
	ID          string    `json:"id"`           // uuid, assigned once
	ImageBase64 string    `json:"image_base64"` // std base64 of the raw image
	Prompt      string    `json:"prompt"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	IsLiked     bool      `json:"is_liked"`
}

// NewCard builds an unliked card for freshly generated image bytes.
func NewCard(image []byte, prompt string) Card {
	return Card{
		ID:          uuid.New().String(),
		ImageBase64: base64.StdEncoding.EncodeToString(image),
		Prompt:      prompt,
		CreatedAt:   time.Now().UTC(),
		IsLiked:     false,
	}
}
