package dataset

import (
	"github.com/rs/zerolog"

	"givingreport/internal/domain"
)

// Inputs carries everything assembly needs: the raw report tables, the
// giving id sets, and the override sheets.
type Inputs struct {
	Transactions [][]string
	Individuals  [][]string
	GivingFamIDs map[int64]struct{}
	GivingIndIDs map[int64]struct{}
	AddFamilies  []int64
	Updates      []IndividualUpdate
	Concat       []*domain.Individual
	CoaRemap     map[string]string
	Overrides    []TransactionOverride
}

// Result is the assembled dataset the recon engine and workbook writer
// consume.
type Result struct {
	Transactions []*domain.Transaction
	Individuals  []*domain.Individual
	Families     []Family
	Donations    *domain.Table
	People       *People
	GivingFamIDs map[int64]struct{}
}

// Assemble runs the full transform pipeline: typed parsing, deceased
// marking, child-giver handling, name merges, overlays, per-transaction
// overrides, and finally the donations join.
func Assemble(in Inputs, log zerolog.Logger) (*Result, error) {
	txs, err := ParseTransactions(in.Transactions)
	if err != nil {
		return nil, err
	}
	inds, err := ParseIndividuals(in.Individuals)
	if err != nil {
		return nil, err
	}
	MarkDeceased(inds)
	inds, err = DropOrRemapChildGivers(txs, inds, in.GivingIndIDs, log)
	if err != nil {
		return nil, err
	}
	MergeDownAlternateName(inds)
	RemapFamilyIDs(txs, inds, in.Updates, in.GivingFamIDs, log)
	ApplyUpdates(inds, in.Updates, log)
	inds = append(inds, in.Concat...)
	ApplyTransactionOverrides(txs, in.Overrides, in.GivingFamIDs)
	for _, famID := range in.AddFamilies {
		in.GivingFamIDs[famID] = struct{}{}
	}
	SortIndividuals(inds)

	people := NewPeople(inds, log)
	return &Result{
		Transactions: txs,
		Individuals:  inds,
		Families:     BuildFamilies(in.GivingFamIDs, people),
		Donations:    BuildDonations(txs, people, in.CoaRemap, log),
		People:       people,
		GivingFamIDs: in.GivingFamIDs,
	}, nil
}
