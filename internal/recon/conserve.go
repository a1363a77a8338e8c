package recon

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"givingreport/internal/domain"
)

// centTolerance absorbs currency rounding across splits and sums.
var centTolerance = decimal.New(1, -2)

// ReportUnused logs every request that never matched a donation and returns
// how many there were. Leftover requests point at stale or mistyped Find
// values in the assignments sheet.
func ReportUnused(reqs Requests, used Used, log zerolog.Logger) int {
	count := 0
	for _, key := range reqs.SortedKeys() {
		if used[key] {
			continue
		}
		count++
		log.Error().
			Str("key", key.String()).
			Str("amount", reqs[key].StringFixed(2)).
			Msg("project assignment matched no donation")
	}
	return count
}

// CheckConservation verifies that the working table still sums to the original
// snapshot's total. Violations are logged with the absolute difference and
// reported to the caller; they never abort the run.
func CheckConservation(original, working *domain.Table, log zerolog.Logger) bool {
	before := original.Total()
	after := working.Total()
	if withinTolerance(before, after) {
		return true
	}
	log.Error().
		Str("original_total", before.StringFixed(2)).
		Str("working_total", after.StringFixed(2)).
		Str("difference", before.Sub(after).Abs().StringFixed(2)).
		Msg("recharacterization changed the total donation amount")
	return false
}
