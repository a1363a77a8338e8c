package dataset

import (
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"givingreport/internal/domain"
)

// Follow-up thresholds: a thank-you note above one, a project assignment
// above the other.
var (
	thankYouThreshold = decimal.NewFromInt(100)
	projectThreshold  = decimal.NewFromInt(1000)
)

// Family is one row of the families sheet.
type Family struct {
	FamilyID  int64
	Names     string
	Emails    string
	PrimaryID int64
	SpouseID  int64
}

// BuildFamilies renders a couple line for every giving family, sorted by
// family id.
func BuildFamilies(givingFamIDs map[int64]struct{}, people *People) []Family {
	ids := make([]int64, 0, len(givingFamIDs))
	for id := range givingFamIDs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]Family, 0, len(ids))
	for _, id := range ids {
		c := people.CoupleForFamily(id)
		out = append(out, Family{
			FamilyID:  id,
			Names:     c.Names,
			Emails:    c.Emails,
			PrimaryID: c.PrimaryID,
			SpouseID:  c.SpouseID,
		})
	}
	return out
}

// BuildDonations joins the transactions with the membership records, maps
// each chart-of-accounts heading to its simplified category, and fills in
// donor display fields and follow-up flags. Transactions keep their order, so
// the table arrives newest first.
func BuildDonations(txs []*domain.Transaction, people *People, coaRemap map[string]string, log zerolog.Logger) *domain.Table {
	t := &domain.Table{Rows: make([]*domain.Donation, 0, len(txs))}
	for _, tx := range txs {
		d := &domain.Donation{
			Date:          tx.Date,
			Amount:        tx.Amount,
			IndID:         tx.IndID,
			FamilyID:      tx.FamilyID,
			TaxDeductible: tx.TaxDeductible,
			PaymentType:   tx.PaymentType,
		}
		if ind := people.Individual(tx.IndID); ind != nil {
			d.First = ind.First
			d.Last = ind.Last
		} else {
			log.Warn().Int64("individual", tx.IndID).Int64("transaction", tx.TransactionID).
				Msg("donation has no membership record for its donor")
		}
		if simplified, ok := coaRemap[tx.COACategory]; ok {
			d.Category = domain.Category(simplified)
		} else {
			log.Warn().Str("coa", tx.COACategory).Int64("transaction", tx.TransactionID).
				Msg("no simplified category for chart-of-accounts heading")
		}
		single := people.CoupleForIndividual(tx.IndID, false)
		couple := people.CoupleForIndividual(tx.IndID, true)
		d.DonorEmail = single.Emails
		d.CoupleEmails = couple.Emails
		d.CoupleNames = couple.Names

		if d.Amount.GreaterThanOrEqual(thankYouThreshold) {
			d.ThankYouNote = "TBD"
		}
		if d.Amount.GreaterThanOrEqual(projectThreshold) || d.Category == domain.CategoryProjects {
			d.AssignedProject = "TBD"
		}
		t.Rows = append(t.Rows, d)
	}
	return t
}

// GivingTotals sums donations per family, year, and category. The workbook
// writer turns these into summary cell comments.
func GivingTotals(t *domain.Table) map[int64]map[int]map[domain.Category]decimal.Decimal {
	totals := make(map[int64]map[int]map[domain.Category]decimal.Decimal)
	for _, d := range t.Rows {
		byYear := totals[d.FamilyID]
		if byYear == nil {
			byYear = make(map[int]map[domain.Category]decimal.Decimal)
			totals[d.FamilyID] = byYear
		}
		byCat := byYear[d.Year()]
		if byCat == nil {
			byCat = make(map[domain.Category]decimal.Decimal)
			byYear[d.Year()] = byCat
		}
		byCat[d.Category] = byCat[d.Category].Add(d.Amount)
	}
	return totals
}

// SortIndividuals orders membership records by last then first name, the
// order the output sheet uses.
func SortIndividuals(inds []*domain.Individual) {
	sort.SliceStable(inds, func(i, j int) bool {
		if inds[i].Last != inds[j].Last {
			return inds[i].Last < inds[j].Last
		}
		return inds[i].First < inds[j].First
	})
}
