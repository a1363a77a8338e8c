package recon

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"givingreport/internal/domain"
)

// inverseStartYear is the first year the inverse check covers. Earlier records
// predate the project-assignment sheet and are left alone.
const inverseStartYear = 2018

// FamilyYear keys the per-family aggregates of the inverse pass.
type FamilyYear struct {
	Year     int
	FamilyID int64
}

// MismatchKind classifies a family/year discrepancy.
type MismatchKind int

const (
	// ZeroAssignmentExcess: Projects donations exist but no assignment at all
	// backs them. Safe to correct automatically; all of it moves.
	ZeroAssignmentExcess MismatchKind = iota
	// PartialExcess: assignments cover part of the Projects donations. Only a
	// proposed correction is annotated; the split needs human judgment.
	PartialExcess
)

// Mismatch is one family/year discrepancy between recharacterized Projects
// donations and the assignments that should back them.
type Mismatch struct {
	Kind        MismatchKind
	Donations   decimal.Decimal
	Assignments decimal.Decimal
}

// Excess is the Projects amount not backed by assignments.
func (m Mismatch) Excess() decimal.Decimal {
	return m.Donations.Sub(m.Assignments)
}

// DetectMismatches compares per-family/year Projects totals in the working
// table against assignment totals resolved from the original snapshot. It
// returns the two excess classes plus the per-key assignment amounts the
// inverse recharacterizer needs. Assignment-exceeds-donation cases are logged
// as data errors and excluded: shrinking a qualifying assignment is outside
// the engine's authority.
func DetectMismatches(working, original *domain.Table, rows []domain.AssignmentRow, log zerolog.Logger) (map[FamilyYear]Mismatch, Requests) {
	donations := make(map[FamilyYear]decimal.Decimal)
	for _, d := range working.Rows {
		if d.Category != domain.CategoryProjects || d.Year() < inverseStartYear {
			continue
		}
		fy := FamilyYear{Year: d.Year(), FamilyID: d.FamilyID}
		donations[fy] = donations[fy].Add(d.Amount)
	}

	resolvable := resolvableAssignments(rows, log)
	assignments := make(map[FamilyYear]decimal.Decimal)
	for _, key := range resolvable.SortedKeys() {
		famID, ok := familyFor(original, key)
		if !ok {
			// Matches no donation; already reported as an unused request.
			log.Debug().Str("key", key.String()).Msg("assignment key resolves to no original donation")
			continue
		}
		fy := FamilyYear{Year: key.Year(), FamilyID: famID}
		assignments[fy] = assignments[fy].Add(resolvable[key])
	}

	out := make(map[FamilyYear]Mismatch)
	for _, fy := range sortedFamilyYears(donations, assignments) {
		don := donations[fy]
		asg := assignments[fy]
		switch {
		case withinTolerance(don, asg):
			// Reconciled.
		case don.GreaterThan(asg) && asg.IsZero():
			out[fy] = Mismatch{Kind: ZeroAssignmentExcess, Donations: don, Assignments: asg}
		case don.GreaterThan(asg):
			out[fy] = Mismatch{Kind: PartialExcess, Donations: don, Assignments: asg}
			log.Warn().
				Int("year", fy.Year).
				Int64("family_id", fy.FamilyID).
				Str("donations", don.StringFixed(2)).
				Str("assignments", asg.StringFixed(2)).
				Msg("projects donations exceed matched assignments")
		default:
			log.Error().
				Int("year", fy.Year).
				Int64("family_id", fy.FamilyID).
				Str("donations", don.StringFixed(2)).
				Str("assignments", asg.StringFixed(2)).
				Msg("assignments exceed recorded projects donations")
		}
	}
	return out, resolvable
}

// ApplyInverse corrects or annotates the working table for each detected
// mismatch. Only the zero-assignment tier mutates data.
func ApplyInverse(working *domain.Table, mismatches map[FamilyYear]Mismatch, resolvable Requests, log zerolog.Logger) {
	fys := make([]FamilyYear, 0, len(mismatches))
	for fy := range mismatches {
		fys = append(fys, fy)
	}
	sort.Slice(fys, func(i, j int) bool {
		if fys[i].Year != fys[j].Year {
			return fys[i].Year < fys[j].Year
		}
		return fys[i].FamilyID < fys[j].FamilyID
	})

	for _, fy := range fys {
		m := mismatches[fy]
		for _, d := range working.Rows {
			if d.Category != domain.CategoryProjects || d.Year() != fy.Year || d.FamilyID != fy.FamilyID {
				continue
			}
			switch m.Kind {
			case ZeroAssignmentExcess:
				d.SetCategory(domain.CategoryGeneralDonation, fmt.Sprintf(
					"Moved %s from %q to %q: no project assignment exists for this family in %d",
					FormatUSD(d.Amount), domain.CategoryProjects, domain.CategoryGeneralDonation, fy.Year))
				log.Debug().Int("year", fy.Year).Int64("family_id", fy.FamilyID).
					Str("amount", d.Amount.StringFixed(2)).Msg("inverse recharacterized donation")
			case PartialExcess:
				proposePartial(d, m, resolvable)
			}
		}
	}
}

// proposePartial annotates one Projects donation of a partial-excess family
// with a proposed correction. Nothing is mutated.
func proposePartial(d *domain.Donation, m Mismatch, resolvable Requests) {
	key, ok := KeyFor(d)
	if !ok {
		return
	}
	assigned, present := resolvable[key]
	switch {
	case !present:
		d.Annotate(fmt.Sprintf(
			"PROPOSED: move the full %s to %q; no project assignment references %s",
			FormatUSD(d.Amount), domain.CategoryGeneralDonation, key))
	case assigned.LessThan(d.Amount) && withinTolerance(d.Amount.Sub(assigned), m.Excess()):
		d.Annotate(fmt.Sprintf(
			"PROPOSED: keep %s as %q and move %s to %q; assignments cover only part of %s",
			FormatUSD(assigned), domain.CategoryProjects,
			FormatUSD(d.Amount.Sub(assigned)), domain.CategoryGeneralDonation, key))
	}
}

// resolvableAssignments re-filters the raw sheet with the sentinel and
// grammar rules only, keeping Projects-coded and over-amount rows that the
// request parser drops; those rows are informative here. Problems were
// already reported during request parsing, so skips stay quiet.
func resolvableAssignments(rows []domain.AssignmentRow, log zerolog.Logger) Requests {
	out := make(Requests)
	for _, row := range rows {
		find := strings.TrimSpace(row.Find)
		if find == "" || find == domain.FindAutoMatch {
			continue
		}
		if find == domain.FindUnmatched {
			continue
		}
		key, err := ParseKey(find)
		if err != nil {
			log.Debug().Err(err).Msg("skipping unparsable assignment in inverse aggregation")
			continue
		}
		out[key] = out[key].Add(normalizeAmount(row.Amount))
	}
	return out
}

// familyFor resolves a key against the original snapshot and returns the
// family id of the first matching donation in table order. The snapshot is
// used because only it carries family-id overrides applied upstream. Key
// collisions resolve to the first textual match; known limitation.
func familyFor(original *domain.Table, key Key) (int64, bool) {
	for _, d := range original.Rows {
		if k, ok := KeyFor(d); ok && k == key {
			return d.FamilyID, true
		}
	}
	return 0, false
}

func sortedFamilyYears(a, b map[FamilyYear]decimal.Decimal) []FamilyYear {
	seen := make(map[FamilyYear]bool, len(a)+len(b))
	var fys []FamilyYear
	for fy := range a {
		if !seen[fy] {
			seen[fy] = true
			fys = append(fys, fy)
		}
	}
	for fy := range b {
		if !seen[fy] {
			seen[fy] = true
			fys = append(fys, fy)
		}
	}
	sort.Slice(fys, func(i, j int) bool {
		if fys[i].Year != fys[j].Year {
			return fys[i].Year < fys[j].Year
		}
		return fys[i].FamilyID < fys[j].FamilyID
	})
	return fys
}
