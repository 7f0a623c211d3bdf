package catalog

import "github.com/avvvet/cardvault/internal/cardsvc/models"

// Matches reports whether the card satisfies every active dimension of sel.
func Matches(c *models.CardView, sel Selection) bool {
	return matchesExcept(c, sel, "")
}

// matchesExcept evaluates every active dimension except skip.
func matchesExcept(c *models.CardView, sel Selection, skip Dimension) bool {
	if skip != DimSport && sel.Sport != "" {
		if c.Sport == nil || *c.Sport != sel.Sport {
			return false
		}
	}
	if skip != DimPlayer && sel.Player != "" {
		if c.PlayerName == nil || *c.PlayerName != sel.Player {
			return false
		}
	}
	if skip != DimYear && sel.Year != nil {
		if c.Year == nil || *c.Year != *sel.Year {
			return false
		}
	}
	if skip != DimType && sel.Type != GradeAny {
		if gradeTypeOf(c) != sel.Type {
			return false
		}
	}
	if skip != DimTags && len(sel.Tags) > 0 {
		for _, want := range sel.Tags {
			if !c.HasTag(want) {
				return false
			}
		}
	}
	return true
}

// Filter returns the cards matching sel, in input order.
func Filter(cards []models.CardView, sel Selection) []models.CardView {
	return filterExcept(cards, sel, "")
}

func filterExcept(cards []models.CardView, sel Selection, skip Dimension) []models.CardView {
	out := make([]models.CardView, 0, len(cards))
	for i := range cards {
		if matchesExcept(&cards[i], sel, skip) {
			out = append(out, cards[i])
		}
	}
	return out
}

func gradeTypeOf(c *models.CardView) GradeType {
	if c.IsGraded {
		return GradeGraded
	}
	return GradeRaw
}
