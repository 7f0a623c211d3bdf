package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Card is one row of the cards table. Nullable columns are pointers.
type Card struct {
	ID             uuid.UUID           `json:"id"`
	OwnerID        uuid.UUID           `json:"owner_id"`
	PlayerID       *uuid.UUID          `json:"player_id"`
	Sport          *string             `json:"sport"`
	Brand          *string             `json:"brand"`
	Year           *int                `json:"year"`
	CardNo         *string             `json:"card_no"`
	IsGraded       bool                `json:"is_graded"`
	GradingCompany *string             `json:"grading_company"`
	GradingNo      *string             `json:"grading_no"` // certification number
	Grade          decimal.NullDecimal `json:"grade"`
	Notes          *string             `json:"notes"`
	CreatedAt      time.Time           `json:"created_at"`
}
