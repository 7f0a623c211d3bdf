package catalog

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/avvvet/cardvault/internal/cardsvc/models"
)

type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Facet is the choice list for one dimension. Total is the "All" count: the
// number of cards matching every other active dimension.
type Facet struct {
	Total   int          `json:"total"`
	Options []FacetCount `json:"options"`
}

type Facets struct {
	Sport  Facet `json:"sport"`
	Player Facet `json:"player"`
	Year   Facet `json:"year"`
	Type   Facet `json:"type"`
	Tags   Facet `json:"tags"`
}

// ComputeFacets counts, for every dimension, how many cards would match each option
// if it were picked while the other active dimensions stay in force.
func ComputeFacets(cards []models.CardView, sel Selection) Facets {
	cmpr := newComparer()
	byString := func(a, b FacetCount) int { return cmpr.col.CompareString(a.Value, b.Value) }

	return Facets{
		Sport: countBy(filterExcept(cards, sel, DimSport), byString, func(c *models.CardView) []string {
			return optional(c.Sport)
		}),
		Player: countBy(filterExcept(cards, sel, DimPlayer), byString, func(c *models.CardView) []string {
			return optional(c.PlayerName)
		}),
		Year: countBy(filterExcept(cards, sel, DimYear), byYear, func(c *models.CardView) []string {
			if c.Year == nil {
				return nil
			}
			return []string{strconv.Itoa(*c.Year)}
		}),
		Type: typeFacet(filterExcept(cards, sel, DimType)),
		Tags: countBy(filterExcept(cards, sel, DimTags), byString, func(c *models.CardView) []string {
			return c.TagLabels()
		}),
	}
}

// Get returns the facet for d.
func (f Facets) Get(d Dimension) Facet {
	switch d {
	case DimSport:
		return f.Sport
	case DimPlayer:
		return f.Player
	case DimYear:
		return f.Year
	case DimType:
		return f.Type
	case DimTags:
		return f.Tags
	}
	return Facet{}
}

// Count returns the count for one option, zero when absent.
func (f Facet) Count(value string) int {
	for _, o := range f.Options {
		if o.Value == value {
			return o.Count
		}
	}
	return 0
}

func countBy(base []models.CardView, order func(a, b FacetCount) int, values func(*models.CardView) []string) Facet {
	counts := map[string]int{}
	for i := range base {
		seen := map[string]struct{}{}
		for _, v := range values(&base[i]) {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			counts[v]++
		}
	}

	opts := make([]FacetCount, 0, len(counts))
	for v, n := range counts {
		opts = append(opts, FacetCount{Value: v, Count: n})
	}
	slices.SortFunc(opts, order)

	return Facet{Total: len(base), Options: opts}
}

func typeFacet(base []models.CardView) Facet {
	var graded int
	for i := range base {
		if base[i].IsGraded {
			graded++
		}
	}
	return Facet{
		Total: len(base),
		Options: []FacetCount{
			{Value: string(GradeGraded), Count: graded},
			{Value: string(GradeRaw), Count: len(base) - graded},
		},
	}
}

func byYear(a, b FacetCount) int {
	x, _ := strconv.Atoi(a.Value)
	y, _ := strconv.Atoi(b.Value)
	return cmp.Compare(x, y)
}

func optional(s *string) []string {
	if s == nil || *s == "" {
		return nil
	}
	return []string{*s}
}
