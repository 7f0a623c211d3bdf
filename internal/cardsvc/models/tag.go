package models

import "github.com/google/uuid"

type Tag struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"` // unique
}

// CardTag links a card to a tag.
type CardTag struct {
	CardID uuid.UUID `json:"card_id"`
	TagID  uuid.UUID `json:"tag_id"`
}
