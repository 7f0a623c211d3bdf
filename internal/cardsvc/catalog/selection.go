// Package catalog filters, sorts and counts an in-memory card collection.
//
// Everything here is pure: callers fetch the whole collection once and run
// Query on it for every change of the active filters.
package catalog

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// GradeType is the graded/raw filter dimension.
type GradeType string

const (
	GradeAny    GradeType = ""
	GradeGraded GradeType = "graded"
	GradeRaw    GradeType = "raw"
)

// Dimension names a filter dimension. The values double as query keys.
type Dimension string

const (
	DimSport  Dimension = "sport"
	DimPlayer Dimension = "player"
	DimYear   Dimension = "year"
	DimType   Dimension = "type"
	DimTags   Dimension = "tags"
)

// Selection holds the active choice per dimension. A zero value for a
// dimension means no constraint.
type Selection struct {
	Sport  string    `json:"sport,omitempty"`
	Player string    `json:"player,omitempty"`
	Year   *int      `json:"year,omitempty"`
	Type   GradeType `json:"type,omitempty"`
	Tags   []string  `json:"tags,omitempty"` // conjunctive
}

// Active reports whether the dimension constrains the result.
func (s Selection) Active(d Dimension) bool {
	switch d {
	case DimSport:
		return s.Sport != ""
	case DimPlayer:
		return s.Player != ""
	case DimYear:
		return s.Year != nil
	case DimType:
		return s.Type != GradeAny
	case DimTags:
		return len(s.Tags) > 0
	}
	return false
}

func (s Selection) IsEmpty() bool {
	for _, d := range dimensions {
		if s.Active(d) {
			return false
		}
	}
	return true
}

// Values encodes the selection as query parameters, omitting inactive
// dimensions.
func (s Selection) Values() url.Values {
	q := url.Values{}
	if s.Sport != "" {
		q.Set(string(DimSport), s.Sport)
	}
	if s.Player != "" {
		q.Set(string(DimPlayer), s.Player)
	}
	if s.Year != nil {
		q.Set(string(DimYear), strconv.Itoa(*s.Year))
	}
	if s.Type != GradeAny {
		q.Set(string(DimType), string(s.Type))
	}
	for _, t := range s.Tags {
		q.Add(string(DimTags), t)
	}
	return q
}

// ParseSelection reads sport, player, year, type and repeated tags from q.
func ParseSelection(q url.Values) (Selection, error) {
	sel := Selection{
		Sport:  strings.TrimSpace(q.Get(string(DimSport))),
		Player: strings.TrimSpace(q.Get(string(DimPlayer))),
		Tags:   NormalizeLabels(q[string(DimTags)]),
	}

	if raw := strings.TrimSpace(q.Get(string(DimYear))); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return Selection{}, fmt.Errorf("invalid year filter %q", raw)
		}
		sel.Year = &year
	}

	gt, err := ParseGradeType(q.Get(string(DimType)))
	if err != nil {
		return Selection{}, err
	}
	sel.Type = gt

	return sel, nil
}

func ParseGradeType(raw string) (GradeType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return GradeAny, nil
	case "graded":
		return GradeGraded, nil
	case "raw":
		return GradeRaw, nil
	default:
		return GradeAny, fmt.Errorf("invalid type filter %q", raw)
	}
}

// NormalizeLabels trims labels, drops empty ones and removes duplicates while
// keeping first-seen order.
func NormalizeLabels(labels []string) []string {
	if len(labels) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

var dimensions = []Dimension{DimSport, DimPlayer, DimYear, DimType, DimTags}
