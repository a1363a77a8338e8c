package dataset

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"givingreport/internal/domain"
)

var testCoaRemap = map[string]string{
	"Missions : Ingomar Living Waters : Projects": "Projects",
	"Missions : Ingomar Living Waters : Auctions": "Auctions",
}

func TestBuildDonations(t *testing.T) {
	people := NewPeople([]*domain.Individual{
		adult(70, 7, "John", "Doe", "Primary Contact", "Male", "john@example.com"),
		adult(71, 7, "Jane", "Doe", "Spouse", "Female", "john@example.com"),
	}, zerolog.Nop())
	big := tx(1, 70, 7, "1500.00")
	big.COACategory = "Missions : Ingomar Living Waters : Auctions"
	small := tx(2, 70, 7, "50.00")
	small.COACategory = "Missions : Ingomar Living Waters : Projects"

	table := BuildDonations([]*domain.Transaction{big, small}, people, testCoaRemap, zerolog.Nop())
	require.Len(t, table.Rows, 2)

	first := table.Rows[0]
	require.Equal(t, "John", first.First)
	require.Equal(t, domain.CategoryAuctions, first.Category)
	require.Equal(t, "TBD", first.ThankYouNote, "large gifts get a thank-you note")
	require.Equal(t, "TBD", first.AssignedProject, "large gifts get a project assignment")
	require.Equal(t, "John Doe <john@example.com>", first.DonorEmail)
	require.Equal(t, "John & Jane Doe", first.CoupleNames)

	second := table.Rows[1]
	require.Equal(t, domain.CategoryProjects, second.Category)
	require.Empty(t, second.ThankYouNote)
	require.Equal(t, "TBD", second.AssignedProject, "projects gifts always get an assignment")
}

func TestBuildDonationsUnmappedCOA(t *testing.T) {
	people := NewPeople([]*domain.Individual{
		adult(70, 7, "John", "Doe", "Primary Contact", "Male", ""),
	}, zerolog.Nop())
	odd := tx(1, 70, 7, "20.00")
	odd.COACategory = "Some Retired Heading"

	table := BuildDonations([]*domain.Transaction{odd}, people, testCoaRemap, zerolog.Nop())
	require.Empty(t, table.Rows[0].Category)
}

func TestGivingTotals(t *testing.T) {
	table := &domain.Table{Rows: []*domain.Donation{
		{FamilyID: 7, Date: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Category: domain.CategoryProjects, Amount: decimal.NewFromInt(100)},
		{FamilyID: 7, Date: time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC), Category: domain.CategoryProjects, Amount: decimal.NewFromInt(50)},
		{FamilyID: 7, Date: time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC), Category: domain.CategoryAuctions, Amount: decimal.NewFromInt(25)},
	}}
	totals := GivingTotals(table)
	require.True(t, totals[7][2020][domain.CategoryProjects].Equal(decimal.NewFromInt(150)))
	require.True(t, totals[7][2019][domain.CategoryAuctions].Equal(decimal.NewFromInt(25)))
}

func TestBuildFamiliesSorted(t *testing.T) {
	people := NewPeople([]*domain.Individual{
		adult(80, 8, "Rick", "Roe", "Primary Contact", "Male", ""),
		adult(70, 7, "John", "Doe", "Primary Contact", "Male", ""),
	}, zerolog.Nop())
	fams := BuildFamilies(map[int64]struct{}{8: {}, 7: {}}, people)
	require.Len(t, fams, 2)
	require.Equal(t, int64(7), fams[0].FamilyID)
	require.Equal(t, int64(8), fams[1].FamilyID)
}

func TestAssemble(t *testing.T) {
	txRows := [][]string{
		{"Date", "Amount", "Name", "Ind ID", "Family ID", "Transaction ID", "Batch ID", "COA Category"},
		{"2020-03-01", "150.00", "Doe John", "70", "7", "1", "100", "Missions : Ingomar Living Waters : Projects"},
		{"2020-04-01", "30.00", "Doe Kid", "72", "7", "2", "100", "Missions : Ingomar Living Waters : Auctions"},
	}
	indRows := [][]string{
		{"Ind ID", "Family ID", "First", "Last", "Family Position", "Gender", "Email"},
		{"70", "7", "John", "Doe", "Primary Contact", "Male", "john@example.com"},
		{"71", "7", "Jane", "Doe", "Spouse", "Female", "john@example.com"},
		{"72", "7", "Kid", "Doe", "Child", "Male", ""},
	}
	res, err := Assemble(Inputs{
		Transactions: txRows,
		Individuals:  indRows,
		GivingFamIDs: map[int64]struct{}{7: {}},
		GivingIndIDs: map[int64]struct{}{70: {}, 72: {}},
		AddFamilies:  []int64{12},
		CoaRemap:     testCoaRemap,
	}, zerolog.Nop())
	require.NoError(t, err)

	// The child's gift lands on the primary contact and the child is gone
	// from the membership list.
	require.Len(t, res.Individuals, 2)
	require.Len(t, res.Donations.Rows, 2)
	for _, d := range res.Donations.Rows {
		require.Equal(t, int64(70), d.IndID)
	}
	// Newest first.
	require.Equal(t, domain.CategoryAuctions, res.Donations.Rows[0].Category)

	// Seeded family appears in the families sheet even with no members.
	require.Len(t, res.Families, 2)
	require.Equal(t, int64(12), res.Families[1].FamilyID)
	require.Empty(t, res.Families[1].Names)
}
