package models

import "github.com/google/uuid"

type CardImage struct {
	ID          uuid.UUID `json:"id"`
	CardID      uuid.UUID `json:"card_id"`
	StoragePath string    `json:"storage_path"` // object key inside the image bucket
	IsPrimary   bool      `json:"is_primary"`
	URL         string    `json:"url,omitempty"` // derived from StoragePath, never stored
}
