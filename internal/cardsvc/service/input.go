package service

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/avvvet/cardvault/internal/cardsvc/catalog"
	"github.com/avvvet/cardvault/internal/cardsvc/imaging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCardInput is the raw add-card form. Text fields arrive as typed;
// NewCard validates and normalizes them.
type CreateCardInput struct {
	PlayerID   *uuid.UUID // picked from the player list
	PlayerName string     // used when PlayerID is nil

	Sport  string
	Brand  string
	Year   string
	CardNo string

	IsGraded       bool
	GradingCompany string
	GradingNo      string
	Grade          string

	Tags   []string
	Notes  string
	Images []ImageUpload
}

type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
	IsPrimary   bool
	Crop        *imaging.Rect // nil uploads the original bytes
}

var (
	minGrade = decimal.Zero
	maxGrade = decimal.NewFromInt(10)
)

// newCard is a validated CreateCardInput.
type newCard struct {
	playerID   *uuid.UUID
	playerName string

	sport, brand, cardNo *string
	year                 int

	isGraded                  bool
	gradingCompany, gradingNo *string
	grade                     decimal.NullDecimal

	tags   []string
	notes  *string
	images []ImageUpload
}

func (in CreateCardInput) validate() (*newCard, error) {
	nc := &newCard{
		playerID: in.PlayerID,
		sport:    optionalText(in.Sport),
		brand:    optionalText(in.Brand),
		cardNo:   optionalText(in.CardNo),
		isGraded: in.IsGraded,
		tags:     catalog.NormalizeLabels(in.Tags),
		notes:    optionalText(in.Notes),
		images:   in.Images,
	}

	if nc.playerID == nil {
		nc.playerName = strings.TrimSpace(in.PlayerName)
		if nc.playerName == "" {
			return nil, invalid("player", "Please choose a player or enter a new player name.")
		}
	}

	year, err := strconv.Atoi(strings.TrimSpace(in.Year))
	if err != nil {
		return nil, invalid("year", "Year must be a whole number.")
	}
	nc.year = year

	if in.IsGraded {
		nc.gradingCompany = optionalText(in.GradingCompany)
		if nc.gradingCompany == nil {
			return nil, invalid("grading_company", "Please choose a grading company.")
		}
		nc.gradingNo = optionalText(in.GradingNo)

		if g := strings.TrimSpace(in.Grade); g != "" {
			d, err := decimal.NewFromString(g)
			if err != nil {
				return nil, invalid("grade", "Grade must be a number.")
			}
			if d.LessThan(minGrade) || d.GreaterThan(maxGrade) {
				return nil, invalid("grade", "Grade must be between 0 and 10.")
			}
			nc.grade = decimal.NullDecimal{Decimal: d, Valid: true}
		}
	}

	for i, img := range in.Images {
		if len(img.Data) == 0 {
			return nil, invalid("images", fmt.Sprintf("Image %d is empty.", i+1))
		}
		if img.Crop == nil {
			continue
		}
		// cropped images are decoded; bound them before anything is written
		if err := imaging.CheckSize(bytes.NewReader(img.Data)); err != nil {
			if errors.Is(err, imaging.ErrTooLarge) {
				return nil, invalid("images", fmt.Sprintf("Image %d is too large to crop.", i+1))
			}
			return nil, invalid("images", fmt.Sprintf("Image %d is not a readable JPEG or PNG.", i+1))
		}
	}

	return nc, nil
}

// primaryIndex is the first image flagged primary, or the first image.
func (nc *newCard) primaryIndex() int {
	for i, img := range nc.images {
		if img.IsPrimary {
			return i
		}
	}
	return 0
}

func optionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
