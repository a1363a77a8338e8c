package recon

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"givingreport/internal/domain"
)

func donation(last, first string, date string, amount string, cat domain.Category, famID int64) *domain.Donation {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return &domain.Donation{
		Date:     d,
		Amount:   decimal.RequireFromString(amount),
		First:    first,
		Last:     last,
		FamilyID: famID,
		IndID:    famID * 10,
		Category: cat,
	}
}

func TestForwardFullMatch(t *testing.T) {
	table := &domain.Table{Rows: []*domain.Donation{
		donation("Smith", "John", "2019-03-15", "150.00", domain.CategoryAuctions, 42),
	}}
	reqs := ParseAssignments([]domain.AssignmentRow{
		{Find: "Smith-John-20190315-150.00-A", Amount: "150.00"},
	}, testLogger(&bytes.Buffer{}))

	used := Forward(table, reqs, testLogger(&bytes.Buffer{}))

	require.Len(t, table.Rows, 1)
	got := table.Rows[0]
	require.Equal(t, domain.CategoryProjects, got.Category)
	require.True(t, got.Amount.Equal(decimal.NewFromInt(150)))
	require.Len(t, got.Comments, 1)
	require.Contains(t, got.Comments[0], "Recharacterized $150.00")
	require.Len(t, used, 1)
}

func TestForwardSplit(t *testing.T) {
	table := &domain.Table{Rows: []*domain.Donation{
		donation("Smith", "John", "2019-03-15", "500.00", domain.CategoryWaterFilters, 42),
		donation("Doe", "Jane", "2019-04-01", "25.00", domain.CategoryGeneralDonation, 7),
	}}
	reqs := ParseAssignments([]domain.AssignmentRow{
		{Find: "Smith-John-20190315-500.00-WF", Amount: "200.00"},
	}, testLogger(&bytes.Buffer{}))

	before := table.Total()
	Forward(table, reqs, testLogger(&bytes.Buffer{}))

	require.Len(t, table.Rows, 3, "split inserts a child row")

	parent, child := table.Rows[0], table.Rows[1]
	require.True(t, parent.Amount.Equal(decimal.NewFromInt(300)))
	require.Equal(t, domain.CategoryWaterFilters, parent.Category)
	require.Contains(t, parent.CommentText(), "Left $300.00")

	require.True(t, child.Amount.Equal(decimal.NewFromInt(200)))
	require.Equal(t, domain.CategoryProjects, child.Category)
	require.Contains(t, child.CommentText(), "Recharacterized $200.00")
	require.Equal(t, parent.FamilyID, child.FamilyID)
	require.Equal(t, parent.IndID, child.IndID)
	require.Equal(t, parent.Date, child.Date)

	require.Equal(t, "Doe", table.Rows[2].Last, "unrelated rows keep their order")
	require.True(t, table.Total().Equal(before), "split conserves total value")
}

func TestForwardAccumulatedOverAmountLeftUnchanged(t *testing.T) {
	table := &domain.Table{Rows: []*domain.Donation{
		donation("Smith", "John", "2019-03-15", "500.00", domain.CategoryWaterFilters, 42),
	}}
	// Two valid rows accumulate past the donation amount; each row alone
	// passes the parser's per-row check.
	reqs := ParseAssignments([]domain.AssignmentRow{
		{Find: "Smith-John-20190315-500.00-WF", Amount: "400.00"},
		{Find: "Smith-John-20190315-500.00-WF", Amount: "400.00"},
	}, testLogger(&bytes.Buffer{}))

	var buf bytes.Buffer
	used := Forward(table, reqs, testLogger(&buf))

	require.Empty(t, used)
	require.Equal(t, domain.CategoryWaterFilters, table.Rows[0].Category)
	require.True(t, table.Rows[0].Amount.Equal(decimal.NewFromInt(500)))
	require.Contains(t, buf.String(), "request exceeds donation amount")
}

func TestForwardCollisionFirstMatchWins(t *testing.T) {
	table := &domain.Table{Rows: []*domain.Donation{
		donation("Smith", "John", "2019-03-15", "100.00", domain.CategoryAuctions, 42),
		donation("Smith", "John", "2019-03-15", "100.00", domain.CategoryAuctions, 42),
	}}
	reqs := ParseAssignments([]domain.AssignmentRow{
		{Find: "Smith-John-20190315-100.00-A", Amount: "100.00"},
	}, testLogger(&bytes.Buffer{}))

	Forward(table, reqs, testLogger(&bytes.Buffer{}))

	require.Equal(t, domain.CategoryProjects, table.Rows[0].Category)
	require.Equal(t, domain.CategoryAuctions, table.Rows[1].Category, "second colliding row untouched")
}

func TestForwardToleranceOneCent(t *testing.T) {
	table := &domain.Table{Rows: []*domain.Donation{
		donation("Smith", "John", "2019-03-15", "150.01", domain.CategoryAuctions, 42),
	}}
	key := Key{Last: "Smith", First: "John", Date: "20190315", Cents: 15001, Abbrev: "A"}
	reqs := Requests{key: decimal.RequireFromString("150.00")}

	Forward(table, reqs, testLogger(&bytes.Buffer{}))

	require.Len(t, table.Rows, 1, "one-cent difference counts as a full match, not a split")
	require.Equal(t, domain.CategoryProjects, table.Rows[0].Category)
}
