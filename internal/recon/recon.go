package recon

import (
	"github.com/rs/zerolog"

	"givingreport/internal/domain"
)

// Summary reports what a reconciliation run did, for the log and the report
// footer.
type Summary struct {
	Requests       int
	UsedRequests   int
	UnusedRequests int
	Mismatches     int
	Conserved      bool
}

// Run executes the full reconciliation over a snapshot of the donation table
// and the raw project assignments sheet: parse -> forward -> validate ->
// detect -> inverse -> validate. The snapshot is never mutated; the returned
// working table carries all recharacterizations and audit comments.
//
// Every stage is deterministic: re-running on identical inputs produces an
// identical working table and identical log content.
func Run(original *domain.Table, overrides []domain.AssignmentRow, log zerolog.Logger) (*domain.Table, Summary) {
	working := original.Clone()

	reqs := ParseAssignments(overrides, log)
	used := Forward(working, reqs, log)
	unused := ReportUnused(reqs, used, log)
	conserved := CheckConservation(original, working, log)

	mismatches, resolvable := DetectMismatches(working, original, overrides, log)
	ApplyInverse(working, mismatches, resolvable, log)
	if !CheckConservation(original, working, log) {
		conserved = false
	}

	return working, Summary{
		Requests:       len(reqs),
		UsedRequests:   len(used),
		UnusedRequests: unused,
		Mismatches:     len(mismatches),
		Conserved:      conserved,
	}
}
