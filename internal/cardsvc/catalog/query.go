package catalog

import "github.com/avvvet/cardvault/internal/cardsvc/models"

// Result is what a listing view renders: the visible cards in display order
// and the counts for its filter popups.
type Result struct {
	Cards  []models.CardView `json:"cards"`
	Total  int               `json:"total"` // size of the unfiltered collection
	Facets Facets            `json:"facets"`
}

// Query filters, sorts and counts in one pass over the collection.
func Query(cards []models.CardView, sel Selection, key SortKey) Result {
	visible := Filter(cards, sel)
	Sort(visible, key)
	return Result{
		Cards:  visible,
		Total:  len(cards),
		Facets: ComputeFacets(cards, sel),
	}
}
