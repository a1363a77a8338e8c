package dataset

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"givingreport/internal/domain"
)

func person(indID, famID int64, first, last, position string) *domain.Individual {
	return &domain.Individual{
		IndID:          indID,
		FamilyID:       famID,
		First:          first,
		Last:           last,
		FamilyPosition: position,
	}
}

func tx(txID, indID, famID int64, amount string) *domain.Transaction {
	return &domain.Transaction{
		TransactionID: txID,
		IndID:         indID,
		FamilyID:      famID,
		Date:          time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.RequireFromString(amount),
	}
}

func TestParseIndividuals(t *testing.T) {
	rows := [][]string{
		{"Ind ID", "Family ID", "First", "Last", "Family Position", "Deceased Date"},
		{"70", "7", "Jane", "Doe", "Primary Contact", "-"},
		{"71", "7", "John", "Doe", "Spouse", "2019-05-01"},
	}
	inds, err := ParseIndividuals(rows)
	require.NoError(t, err)
	require.Len(t, inds, 2)
	require.Equal(t, int64(70), inds[0].IndID)
	require.False(t, inds[0].Deceased())
	require.True(t, inds[1].Deceased())
}

func TestParseIndividualsBadID(t *testing.T) {
	rows := [][]string{
		{"Ind ID", "Family ID", "First", "Last"},
		{"seventy", "7", "Jane", "Doe"},
	}
	_, err := ParseIndividuals(rows)
	require.Error(t, err)
}

func TestMarkDeceased(t *testing.T) {
	inds := []*domain.Individual{
		person(70, 7, "Jane", "Doe", "Primary Contact"),
		{IndID: 71, FamilyID: 7, First: "John", Last: "Doe", ReasonLeftChurch: "Deceased"},
	}
	MarkDeceased(inds)
	require.Equal(t, "Jane", inds[0].First)
	require.Equal(t, "[DECEASED] John", inds[1].First)
}

func TestMergeDownAlternateName(t *testing.T) {
	inds := []*domain.Individual{
		{IndID: 70, First: "Robert", AlternateName: "Bob"},
		{IndID: 71, First: "Margaret", AlternateName: "Peg", LegalFirst: "Margaret Ann"},
	}
	MergeDownAlternateName(inds)
	require.Equal(t, "Bob", inds[0].First)
	require.Equal(t, "Robert", inds[0].LegalFirst)
	require.Empty(t, inds[0].AlternateName)
	// A populated legal name blocks the merge.
	require.Equal(t, "Margaret", inds[1].First)
}

func TestDropOrRemapChildGivers(t *testing.T) {
	inds := []*domain.Individual{
		person(70, 7, "Jane", "Doe", "Primary Contact"),
		person(71, 7, "Kid", "Doe", "Child"),
		person(80, 8, "Rick", "Roe", "Primary Contact"),
		person(81, 8, "Tot", "Roe", "Child"),
	}
	txs := []*domain.Transaction{tx(1, 71, 7, "25.00")}
	giving := map[int64]struct{}{71: {}}

	kept, err := DropOrRemapChildGivers(txs, inds, giving, zerolog.Nop())
	require.NoError(t, err)

	// The giving child's row moves to the primary contact; both children are
	// dropped from the membership list.
	require.Equal(t, int64(70), txs[0].IndID)
	require.Len(t, kept, 2)
	for _, ind := range kept {
		require.NotEqual(t, "Child", ind.FamilyPosition)
	}
}

func TestDropOrRemapChildGiversNoParent(t *testing.T) {
	inds := []*domain.Individual{person(71, 7, "Kid", "Doe", "Child")}
	txs := []*domain.Transaction{tx(1, 71, 7, "25.00")}

	_, err := DropOrRemapChildGivers(txs, inds, map[int64]struct{}{71: {}}, zerolog.Nop())
	require.ErrorContains(t, err, "no primary contact")
}

func TestRemapFamilyIDs(t *testing.T) {
	inds := []*domain.Individual{
		person(70, 7, "Jane", "Doe", "Primary Contact"), // alone in family 7
		person(80, 8, "Rick", "Roe", "Primary Contact"),
		person(81, 8, "Rita", "Roe", "Spouse"),
	}
	txs := []*domain.Transaction{tx(1, 70, 7, "25.00"), tx(2, 80, 8, "10.00")}
	famIDs := map[int64]struct{}{7: {}, 8: {}}
	updates := []IndividualUpdate{
		{IndID: 70, FamilyID: 9},
		{IndID: 80, FamilyID: 99}, // family of two, not remapped
	}

	RemapFamilyIDs(txs, inds, updates, famIDs, zerolog.Nop())

	require.Equal(t, int64(9), txs[0].FamilyID)
	require.Equal(t, int64(8), txs[1].FamilyID)
	require.Contains(t, famIDs, int64(9))
	require.NotContains(t, famIDs, int64(7))
	require.Contains(t, famIDs, int64(8))
}

func TestApplyUpdates(t *testing.T) {
	inds := []*domain.Individual{person(70, 7, "Jane", "Doe", "Primary Contact")}
	updates := []IndividualUpdate{
		{IndID: 70, FamilyID: 9, Fields: map[string]string{"Email": "jane@example.com", "Last": "Doe-Smith"}},
		{IndID: 999, Fields: map[string]string{"First": "Ghost"}},
	}
	ApplyUpdates(inds, updates, zerolog.Nop())

	require.Equal(t, int64(9), inds[0].FamilyID)
	require.Equal(t, "jane@example.com", inds[0].Email)
	require.Equal(t, "Doe-Smith", inds[0].Last)
}
