package models

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the owner of a session. Anonymous identities are created on
// first use and own every card they add.
type Identity struct {
	ID          uuid.UUID `json:"id"`
	IsAnonymous bool      `json:"is_anonymous"`
	CreatedAt   time.Time `json:"created_at"`
}
