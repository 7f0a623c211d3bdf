package models

import (
	"strconv"
	"strings"
)

const UnknownPlayer = "Unknown Player"

// CardView is the denormalized shape returned by the composite list read:
// a card with its player name, images and tags joined in.
type CardView struct {
	Card
	PlayerName *string     `json:"player_name"`
	Images     []CardImage `json:"images"`
	Tags       []Tag       `json:"tags"`
}

// PlayerDisplay returns the player name or a placeholder when the join is empty.
func (c *CardView) PlayerDisplay() string {
	if c.PlayerName == nil || *c.PlayerName == "" {
		return UnknownPlayer
	}
	return *c.PlayerName
}

// Title renders "<year> <brand> #<card no>", leaving out missing parts.
func (c *CardView) Title() string {
	parts := make([]string, 0, 3)
	if c.Year != nil {
		parts = append(parts, strconv.Itoa(*c.Year))
	}
	if b := deref(c.Brand); b != "" {
		parts = append(parts, b)
	}
	if no := deref(c.CardNo); no != "" {
		parts = append(parts, "#"+no)
	}
	return strings.Join(parts, " ")
}

// GradeLabel returns the grading chip, e.g. "PSA 8 (#106519951)", or "Raw".
func (c *CardView) GradeLabel() string {
	if !c.IsGraded || (deref(c.GradingCompany) == "" && !c.Grade.Valid) {
		return "Raw"
	}
	label := deref(c.GradingCompany)
	if c.Grade.Valid {
		label += " " + c.Grade.Decimal.String()
	}
	if no := deref(c.GradingNo); no != "" {
		label += " (#" + no + ")"
	}
	return strings.TrimSpace(label)
}

// PrimaryIndex returns the index of the primary image, falling back to the
// first image. It returns -1 when the card has no images.
func (c *CardView) PrimaryIndex() int {
	if len(c.Images) == 0 {
		return -1
	}
	for i, img := range c.Images {
		if img.IsPrimary {
			return i
		}
	}
	return 0
}

func (c *CardView) PrimaryImage() *CardImage {
	i := c.PrimaryIndex()
	if i < 0 {
		return nil
	}
	return &c.Images[i]
}

func (c *CardView) TagLabels() []string {
	labels := make([]string, 0, len(c.Tags))
	for _, t := range c.Tags {
		if t.Label != "" {
			labels = append(labels, t.Label)
		}
	}
	return labels
}

func (c *CardView) HasTag(label string) bool {
	for _, t := range c.Tags {
		if t.Label == label {
			return true
		}
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
