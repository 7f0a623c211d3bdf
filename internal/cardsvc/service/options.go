package service

// Fixed choices offered by the card form. Users may still type values that
// are not in these lists.
var (
	Sports           = []string{"Baseball", "Basketball", "Football", "Hockey", "Miscellaneous"}
	Brands           = []string{"Topps", "Fleer", "Donruss", "Philadelphia"}
	GradingCompanies = []string{"PSA", "SGC", "BVG", "Beckett", "SWG", "CGC"}

	// DefaultTags are always suggested, whether or not any card uses them yet.
	DefaultTags = []string{"RC", "Auto", "Refractor", "Numbered", "Patch", "HOF"}
)

type FormOptions struct {
	Sports           []string `json:"sports"`
	Brands           []string `json:"brands"`
	GradingCompanies []string `json:"grading_companies"`
	Tags             []string `json:"tags"`
}
