package dataset

import (
	"strings"

	"github.com/rs/zerolog"

	"givingreport/internal/domain"
)

// People indexes the membership records for family and donor lookups.
type People struct {
	byInd map[int64]*domain.Individual
	byFam map[int64][]*domain.Individual
	log   zerolog.Logger
}

// NewPeople builds the lookup indexes. Family member order follows the input
// slice, so callers should sort individuals first if they want deterministic
// couple selection.
func NewPeople(inds []*domain.Individual, log zerolog.Logger) *People {
	p := &People{
		byInd: make(map[int64]*domain.Individual, len(inds)),
		byFam: make(map[int64][]*domain.Individual),
		log:   log,
	}
	for _, ind := range inds {
		p.byInd[ind.IndID] = ind
		p.byFam[ind.FamilyID] = append(p.byFam[ind.FamilyID], ind)
	}
	return p
}

// Individual returns the record for an id, or nil.
func (p *People) Individual(indID int64) *domain.Individual {
	return p.byInd[indID]
}

// Couple is the display form of a family's addressable adults. A starred
// first name inside Emails marks which spouse an address belongs to when the
// couple uses separate addresses.
type Couple struct {
	Names     string
	Emails    string
	PrimaryID int64
	SpouseID  int64
}

// CoupleForFamily renders the family's couple line, selecting the primary
// contact and spouse (with fallbacks) and skipping deceased members.
func (p *People) CoupleForFamily(famID int64) Couple {
	return p.couple(famID, 0)
}

// CoupleForIndividual renders either the donor alone or the donor's whole
// couple.
func (p *People) CoupleForIndividual(indID int64, includeSpouse bool) Couple {
	ind := p.byInd[indID]
	if ind == nil {
		return Couple{}
	}
	if includeSpouse {
		return p.couple(ind.FamilyID, 0)
	}
	return p.couple(ind.FamilyID, indID)
}

// couple selects the addressable members of a family and renders their names
// and emails. When only is nonzero the rendering covers that one member.
func (p *People) couple(famID, only int64) Couple {
	members := p.byFam[famID]
	if len(members) == 0 {
		p.log.Warn().Int64("family", famID).Msg("cannot find family")
		return Couple{}
	}

	var first, second *domain.Individual
	bothDeceased := false
	if only != 0 {
		if ind := p.byInd[only]; ind != nil && !ind.Deceased() {
			first = ind
		}
	} else {
		// A traditional couple first: living primary contact and spouse by
		// gender.
		for _, ind := range members {
			if ind.FamilyPosition != "Primary Contact" && ind.FamilyPosition != "Spouse" {
				continue
			}
			if ind.Deceased() {
				continue
			}
			switch ind.Gender {
			case "Male":
				first = ind
			case "Female":
				second = ind
			}
		}
		// Otherwise the first living primary contact regardless of gender.
		if first == nil && second == nil {
			for _, ind := range members {
				if ind.FamilyPosition == "Primary Contact" && !ind.Deceased() {
					first = ind
					break
				}
			}
		}
		// Organizations and odd households fall through to the first living
		// 'Other'.
		if first == nil && second == nil {
			for _, ind := range members {
				if ind.FamilyPosition == "Other" && !ind.Deceased() {
					first = ind
					p.log.Debug().Int64("individual", ind.IndID).Str("gender", ind.Gender).
						Msg("no living primary contact or spouse, using 'Other' member")
					break
				}
			}
		}
		// Everyone addressable is deceased: name them anyway but suppress the
		// emails.
		if first == nil && second == nil {
			bothDeceased = true
			for _, ind := range members {
				if ind.FamilyPosition != "Primary Contact" && ind.FamilyPosition != "Spouse" {
					continue
				}
				switch ind.Gender {
				case "Male":
					first = ind
				case "Female":
					second = ind
				}
			}
		}
	}

	c := renderCouple(first, second)
	if bothDeceased {
		c.Emails = ""
	}
	return c
}

func renderCouple(first, second *domain.Individual) Couple {
	if first == nil && second == nil {
		return Couple{}
	}
	if first == nil {
		first, second = second, nil
	}

	if second == nil {
		c := Couple{
			Names:     dropCommas(first.First + " " + first.Last),
			PrimaryID: first.IndID,
		}
		if first.Email != "" {
			c.Emails = dropCommas(first.First + " " + first.Last + " <" + first.Email + ">")
		}
		return c
	}

	c := Couple{PrimaryID: first.IndID, SpouseID: second.IndID}
	sameLast := first.Last == second.Last
	if sameLast {
		c.Names = dropCommas(first.First + " & " + second.First + " " + first.Last)
	} else {
		c.Names = dropCommas(first.First + " " + first.Last + " & " + second.First + " " + second.Last)
	}

	// A shared address (or only one address) gets a single combined entry.
	// Separate addresses get one entry per spouse, the owner starred.
	sharedEmail := first.Email == second.Email || first.Email == "" || second.Email == ""
	var slots []string
	if sharedEmail {
		email := first.Email
		if email == "" {
			email = second.Email
		}
		if email != "" {
			if sameLast {
				slots = append(slots, first.First+" & "+second.First+" "+first.Last+" <"+email+">")
			} else {
				slots = append(slots, first.First+" "+first.Last+" & "+second.First+" "+second.Last+" <"+email+">")
			}
		}
	} else {
		if sameLast {
			slots = append(slots,
				first.First+"* & "+second.First+" "+first.Last+" <"+first.Email+">",
				first.First+" & "+second.First+"* "+first.Last+" <"+second.Email+">")
		} else {
			slots = append(slots,
				first.First+"* "+first.Last+" & "+second.First+" "+second.Last+" <"+first.Email+">",
				first.First+" "+first.Last+" & "+second.First+"* "+second.Last+" <"+second.Email+">")
		}
	}
	for i, s := range slots {
		slots[i] = dropCommas(s)
	}
	c.Emails = strings.Join(slots, ", ")
	return c
}

// Commas would break the comma-separated recipient lists the emails feed.
func dropCommas(s string) string {
	return strings.ReplaceAll(s, ",", "")
}
