package models

import (
	"time"

	"github.com/google/uuid"
)

type Player struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"` // looked up by exact match before insert
	CreatedAt time.Time `json:"created_at"`
}
