package catalog

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/avvvet/cardvault/internal/cardsvc/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey selects the primary ordering. Every key falls back to the
// composite player → year → brand → number order on ties.
type SortKey string

const (
	SortPlayer  SortKey = "player"
	SortYear    SortKey = "year"    // newest first
	SortBrand   SortKey = "brand"
	SortNumber  SortKey = "number"
	SortCreated SortKey = "created" // newest first
)

func ParseSortKey(raw string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(raw))); k {
	case "":
		return SortPlayer, nil
	case SortPlayer, SortYear, SortBrand, SortNumber, SortCreated:
		return k, nil
	default:
		return "", fmt.Errorf("invalid sort key %q", raw)
	}
}

// Sort orders cards in place. The sort is stable.
func Sort(cards []models.CardView, key SortKey) {
	cmpr := newComparer()
	slices.SortStableFunc(cards, func(a, b models.CardView) int {
		return cmpr.compare(&a, &b, key)
	})
}

// Compare is the default composite comparator.
func Compare(a, b *models.CardView) int {
	return newComparer().composite(a, b)
}

// comparer wraps the collators. Collators keep internal buffers, so they are
// built per sort rather than shared.
type comparer struct {
	col *collate.Collator
	num *collate.Collator
}

func newComparer() *comparer {
	return &comparer{
		col: collate.New(language.English, collate.IgnoreCase),
		num: collate.New(language.English, collate.IgnoreCase, collate.Numeric),
	}
}

func (c *comparer) compare(a, b *models.CardView, key SortKey) int {
	var r int
	switch key {
	case SortYear:
		r = nullsLast(a.Year, b.Year, func(x, y int) int { return cmp.Compare(y, x) })
	case SortBrand:
		r = nullsLast(a.Brand, b.Brand, c.col.CompareString)
	case SortNumber:
		r = nullsLast(a.CardNo, b.CardNo, c.cardNo)
	case SortCreated:
		r = b.CreatedAt.Compare(a.CreatedAt)
	}
	if r != 0 {
		return r
	}
	return c.composite(a, b)
}

func (c *comparer) composite(a, b *models.CardView) int {
	if r := nullsLast(a.PlayerName, b.PlayerName, c.col.CompareString); r != 0 {
		return r
	}
	if r := nullsLast(a.Year, b.Year, cmp.Compare[int]); r != 0 {
		return r
	}
	if r := nullsLast(a.Brand, b.Brand, c.col.CompareString); r != 0 {
		return r
	}
	return nullsLast(a.CardNo, b.CardNo, c.cardNo)
}

// cardNo compares card numbers with digit runs read as numbers, so
// "7" < "10" and "T-7" < "T-10".
func (c *comparer) cardNo(a, b string) int {
	return c.num.CompareString(a, b)
}

// CompareCardNo is the card number comparison used by Sort.
func CompareCardNo(a, b string) int {
	return newComparer().cardNo(a, b)
}

// nullsLast orders nil and empty-string values after every present value.
func nullsLast[T any](a, b *T, f func(x, y T) int) int {
	aNil, bNil := isNull(a), isNull(b)
	switch {
	case aNil && bNil:
		return 0
	case aNil:
		return 1
	case bNil:
		return -1
	}
	return f(*a, *b)
}

func isNull[T any](p *T) bool {
	if p == nil {
		return true
	}
	if s, ok := any(*p).(string); ok {
		return s == ""
	}
	return false
}

// SortLabels orders free-text labels case-insensitively in place.
func SortLabels(labels []string) {
	col := collate.New(language.English, collate.IgnoreCase)
	slices.SortStableFunc(labels, col.CompareString)
}
