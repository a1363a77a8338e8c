package domain

// Category is the simplified chart-of-accounts bucket a donation is recorded
// under after the COA remap has been applied.
type Category string

const (
	CategoryProjects        Category = "Projects"
	CategoryWaterFilters    Category = "Water Filters"
	CategoryGeneralDonation Category = "General Donation"
	CategoryAuctions        Category = "Auctions"
	CategorySponsorships    Category = "Sponsorships & Tickets"
)

// abbrevs maps the short code embedded in match keys to its category.
var abbrevs = map[string]Category{
	"P":  CategoryProjects,
	"WF": CategoryWaterFilters,
	"GD": CategoryGeneralDonation,
	"A":  CategoryAuctions,
	"ST": CategorySponsorships,
}

// Abbrev returns the short code used inside match keys. The second return is
// false for categories that are not recharacterizable.
func (c Category) Abbrev() (string, bool) {
	for code, cat := range abbrevs {
		if cat == c {
			return code, true
		}
	}
	return "", false
}

// CategoryFromAbbrev resolves a match-key short code to its category.
func CategoryFromAbbrev(code string) (Category, bool) {
	cat, ok := abbrevs[code]
	return cat, ok
}
