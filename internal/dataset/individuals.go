package dataset

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"givingreport/internal/domain"
)

// deceasedPrefix is prepended to the first name of deceased members so they
// stand out everywhere downstream.
const deceasedPrefix = "[DECEASED] "

// ParseIndividuals converts the raw membership export (header row first) into
// typed records. Rows with unparsable ids are fatal.
func ParseIndividuals(rows [][]string) ([]*domain.Individual, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset: individuals table is empty")
	}
	cols := indexColumns(rows[0])
	if err := cols.require("Ind ID", "Family ID", "First", "Last"); err != nil {
		return nil, err
	}
	out := make([]*domain.Individual, 0, len(rows)-1)
	for _, row := range rows[1:] {
		indID, err := strconv.ParseInt(cols.cell(row, "Ind ID"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("dataset: individual id %q: %w", cols.cell(row, "Ind ID"), err)
		}
		famID, err := strconv.ParseInt(cols.cell(row, "Family ID"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("dataset: family id %q: %w", cols.cell(row, "Family ID"), err)
		}
		out = append(out, &domain.Individual{
			IndID:            indID,
			FamilyID:         famID,
			First:            cols.cell(row, "First"),
			Last:             cols.cell(row, "Last"),
			LegalFirst:       cols.cell(row, "Legal first"),
			AlternateName:    cols.cell(row, "Alternate Name"),
			FamilyPosition:   cols.cell(row, "Family Position"),
			Gender:           cols.cell(row, "Gender"),
			Email:            cols.cell(row, "Email"),
			ReasonLeftChurch: cols.cell(row, "Reason Left Church"),
			DeceasedDate:     cols.cell(row, "Deceased Date"),
			HomePhone:        cols.cell(row, "Home Phone"),
			MobilePhone:      cols.cell(row, "Mobile Phone"),
			MailingStreet:    cols.cell(row, "Mailing Street"),
			MailingCity:      cols.cell(row, "Mailing City"),
			MailingState:     cols.cell(row, "Mailing State"),
			MailingZip:       cols.cell(row, "Mailing Zip"),
		})
	}
	return out, nil
}

// MarkDeceased prefixes the first name of every deceased member.
func MarkDeceased(inds []*domain.Individual) {
	for _, ind := range inds {
		if ind.Deceased() {
			ind.First = deceasedPrefix + ind.First
		}
	}
}

// MergeDownAlternateName moves a preferred (alternate) name into the First
// slot, preserving the given name as Legal first.
func MergeDownAlternateName(inds []*domain.Individual) {
	for _, ind := range inds {
		if ind.AlternateName != "" && ind.LegalFirst == "" {
			ind.LegalFirst = ind.First
			ind.First = ind.AlternateName
			ind.AlternateName = ""
		}
	}
}

// DropOrRemapChildGivers removes children from the membership list. A child
// who actually gave has their contributions reattributed to the family's
// primary contact; a child giver with no primary contact is fatal.
func DropOrRemapChildGivers(txs []*domain.Transaction, inds []*domain.Individual, givingIndIDs map[int64]struct{}, log zerolog.Logger) ([]*domain.Individual, error) {
	drop := make(map[int64]bool)
	remapToFamily := make(map[int64]int64)
	for _, ind := range inds {
		if ind.FamilyPosition != "Child" {
			continue
		}
		if _, gave := givingIndIDs[ind.IndID]; gave {
			remapToFamily[ind.IndID] = ind.FamilyID
		} else {
			drop[ind.IndID] = true
		}
	}
	for _, tx := range txs {
		famID, ok := remapToFamily[tx.IndID]
		if !ok {
			continue
		}
		parentID := primaryContactID(famID, inds)
		if parentID == 0 {
			return nil, fmt.Errorf("dataset: child giver %d has no primary contact to receive the contribution", tx.IndID)
		}
		log.Debug().Int64("child", tx.IndID).Int64("parent", parentID).Msg("reattributing child contribution to primary contact")
		drop[tx.IndID] = true
		tx.IndID = parentID
	}
	kept := inds[:0]
	for _, ind := range inds {
		if !drop[ind.IndID] {
			kept = append(kept, ind)
		}
	}
	return kept, nil
}

func primaryContactID(famID int64, inds []*domain.Individual) int64 {
	for _, ind := range inds {
		if ind.FamilyID == famID && ind.FamilyPosition == "Primary Contact" {
			return ind.IndID
		}
	}
	return 0
}

// IndividualUpdate is one overlay row: field values that replace what the
// export reported for the member. A zero FamilyID means the family is
// unchanged.
type IndividualUpdate struct {
	IndID    int64
	FamilyID int64
	Fields   map[string]string
}

// RemapFamilyIDs moves single-member families onto the family id an overlay
// row assigns, rewriting transactions and the giving-family set to match.
func RemapFamilyIDs(txs []*domain.Transaction, inds []*domain.Individual, updates []IndividualUpdate, givingFamIDs map[int64]struct{}, log zerolog.Logger) {
	for _, u := range updates {
		if u.FamilyID == 0 {
			continue
		}
		ind := findIndividual(inds, u.IndID)
		if ind == nil || ind.FamilyID == u.FamilyID {
			continue
		}
		if familySize(inds, ind.FamilyID) > 1 {
			continue
		}
		old := ind.FamilyID
		for _, tx := range txs {
			if tx.FamilyID == old {
				tx.FamilyID = u.FamilyID
			}
		}
		if _, ok := givingFamIDs[old]; ok {
			delete(givingFamIDs, old)
			log.Debug().Int64("family", old).Msg("removed remapped family id from giving set")
		}
		if _, ok := givingFamIDs[u.FamilyID]; !ok {
			givingFamIDs[u.FamilyID] = struct{}{}
			log.Debug().Int64("family", u.FamilyID).Msg("added remapped family id to giving set")
		}
	}
}

// ApplyUpdates overlays the update rows onto the membership records.
func ApplyUpdates(inds []*domain.Individual, updates []IndividualUpdate, log zerolog.Logger) {
	for _, u := range updates {
		ind := findIndividual(inds, u.IndID)
		if ind == nil {
			log.Warn().Int64("individual", u.IndID).Msg("update row references an unknown individual")
			continue
		}
		if u.FamilyID != 0 {
			ind.FamilyID = u.FamilyID
		}
		for field, value := range u.Fields {
			if !setIndividualField(ind, field, value) {
				log.Warn().Str("column", field).Msg("update row references an unknown column")
			}
		}
	}
}

func setIndividualField(ind *domain.Individual, field, value string) bool {
	switch field {
	case "First":
		ind.First = value
	case "Last":
		ind.Last = value
	case "Legal first":
		ind.LegalFirst = value
	case "Alternate Name":
		ind.AlternateName = value
	case "Family Position":
		ind.FamilyPosition = value
	case "Gender":
		ind.Gender = value
	case "Email":
		ind.Email = value
	case "Reason Left Church":
		ind.ReasonLeftChurch = value
	case "Deceased Date":
		ind.DeceasedDate = value
	case "Home Phone":
		ind.HomePhone = value
	case "Mobile Phone":
		ind.MobilePhone = value
	case "Mailing Street":
		ind.MailingStreet = value
	case "Mailing City":
		ind.MailingCity = value
	case "Mailing State":
		ind.MailingState = value
	case "Mailing Zip":
		ind.MailingZip = value
	default:
		return false
	}
	return true
}

func findIndividual(inds []*domain.Individual, indID int64) *domain.Individual {
	for _, ind := range inds {
		if ind.IndID == indID {
			return ind
		}
	}
	return nil
}

func familySize(inds []*domain.Individual, famID int64) int {
	n := 0
	for _, ind := range inds {
		if ind.FamilyID == famID {
			n++
		}
	}
	return n
}
