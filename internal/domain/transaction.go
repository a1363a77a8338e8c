package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one raw contribution row as retrieved from CCB, before the
// individuals join and the COA remap.
type Transaction struct {
	Date          time.Time
	Amount        decimal.Decimal
	Name          string
	IndID         int64
	FamilyID      int64
	TransactionID int64
	BatchID       int64
	BatchName     string
	Grouping      string
	COACategory   string
	PaymentType   string
	CheckNumber   string
	Memo          string
	TaxDeductible string
}

// Individual is one membership record as retrieved from CCB, after the
// column-drop and overlay steps.
type Individual struct {
	IndID            int64
	FamilyID         int64
	First            string
	Last             string
	LegalFirst       string
	AlternateName    string
	FamilyPosition   string
	Gender           string
	Email            string
	ReasonLeftChurch string
	DeceasedDate     string
	HomePhone        string
	MobilePhone      string
	MailingStreet    string
	MailingCity      string
	MailingState     string
	MailingZip       string
}

// Deceased reports whether the record is marked deceased either by the
// departure reason or by a populated deceased date.
func (i *Individual) Deceased() bool {
	if i.ReasonLeftChurch == "Deceased" {
		return true
	}
	return i.DeceasedDate != "" && i.DeceasedDate != "-"
}
