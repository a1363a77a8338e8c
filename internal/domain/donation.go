package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Donation is one contribution event after the transactions/individuals join.
// The recon engine clones donations into a working table and mutates the
// copies; rows loaded from upstream are never touched.
type Donation struct {
	Date            time.Time
	Amount          decimal.Decimal
	First           string
	Last            string
	IndID           int64
	FamilyID        int64
	Category        Category
	ThankYouNote    string
	AssignedProject string
	TaxDeductible   string
	PaymentType     string
	DonorEmail      string
	CoupleEmails    string
	CoupleNames     string
	Comments        []string
	Changes         []Change
}

// Change is one entry in a donation's append-only audit trail.
type Change struct {
	Field  string
	Old    string
	New    string
	Reason string
}

// Year returns the calendar year the donation was made.
func (d *Donation) Year() int {
	return d.Date.Year()
}

// Clone returns a deep copy of the donation.
func (d *Donation) Clone() *Donation {
	c := *d
	c.Comments = append([]string(nil), d.Comments...)
	c.Changes = append([]Change(nil), d.Changes...)
	return &c
}

// SetCategory records a category mutation with its audit entry.
func (d *Donation) SetCategory(to Category, reason string) {
	d.Changes = append(d.Changes, Change{
		Field:  "Category",
		Old:    string(d.Category),
		New:    string(to),
		Reason: reason,
	})
	d.Category = to
	d.Comments = append(d.Comments, reason)
}

// SetAmount records an amount mutation with its audit entry.
func (d *Donation) SetAmount(to decimal.Decimal, reason string) {
	d.Changes = append(d.Changes, Change{
		Field:  "Amount",
		Old:    d.Amount.StringFixed(2),
		New:    to.StringFixed(2),
		Reason: reason,
	})
	d.Amount = to
	d.Comments = append(d.Comments, reason)
}

// Annotate appends a comment without changing any value.
func (d *Donation) Annotate(comment string) {
	d.Changes = append(d.Changes, Change{Field: "Comments", New: comment, Reason: comment})
	d.Comments = append(d.Comments, comment)
}

// CommentText renders the accumulated comment trail as a single cell value.
func (d *Donation) CommentText() string {
	return strings.Join(d.Comments, "; ")
}

// Table is an ordered donation collection. Row order is meaningful: split
// children sit directly after their parent so the audit trail reads naturally.
type Table struct {
	Rows []*Donation
}

// Clone returns a deep copy of the table for copy-on-write mutation passes.
func (t *Table) Clone() *Table {
	c := &Table{Rows: make([]*Donation, len(t.Rows))}
	for i, d := range t.Rows {
		c.Rows[i] = d.Clone()
	}
	return c
}

// InsertAfter places d directly after index i.
func (t *Table) InsertAfter(i int, d *Donation) {
	t.Rows = append(t.Rows, nil)
	copy(t.Rows[i+2:], t.Rows[i+1:])
	t.Rows[i+1] = d
}

// Total sums every donation amount in the table.
func (t *Table) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, d := range t.Rows {
		sum = sum.Add(d.Amount)
	}
	return sum
}
