package dataset

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"givingreport/internal/domain"
)

// Family ids at or above this value do not exist in the membership system;
// the override sheet invents them for donors recorded outside it.
const syntheticFamilyIDFloor = 100000

const transactionDateLayout = "2006-01-02"

// ParseTransactions converts the raw contribution table (header row first)
// into typed records sorted newest first. Unparsable dates, amounts, or ids
// are fatal.
func ParseTransactions(rows [][]string) ([]*domain.Transaction, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset: transactions table is empty")
	}
	cols := indexColumns(rows[0])
	if err := cols.require("Date", "Amount", "Ind ID", "Family ID", "Transaction ID", "COA Category"); err != nil {
		return nil, err
	}
	out := make([]*domain.Transaction, 0, len(rows)-1)
	for _, row := range rows[1:] {
		date, err := time.Parse(transactionDateLayout, cols.cell(row, "Date"))
		if err != nil {
			return nil, fmt.Errorf("dataset: transaction date %q: %w", cols.cell(row, "Date"), err)
		}
		amount, err := decimal.NewFromString(cols.cell(row, "Amount"))
		if err != nil {
			return nil, fmt.Errorf("dataset: transaction amount %q: %w", cols.cell(row, "Amount"), err)
		}
		indID, err := strconv.ParseInt(cols.cell(row, "Ind ID"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("dataset: transaction individual id %q: %w", cols.cell(row, "Ind ID"), err)
		}
		famID, err := strconv.ParseInt(cols.cell(row, "Family ID"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("dataset: transaction family id %q: %w", cols.cell(row, "Family ID"), err)
		}
		txID, err := strconv.ParseInt(cols.cell(row, "Transaction ID"), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("dataset: transaction id %q: %w", cols.cell(row, "Transaction ID"), err)
		}
		batchID, _ := strconv.ParseInt(cols.cell(row, "Batch ID"), 10, 64)
		out = append(out, &domain.Transaction{
			Date:          date,
			Amount:        amount,
			Name:          cols.cell(row, "Name"),
			IndID:         indID,
			FamilyID:      famID,
			TransactionID: txID,
			BatchID:       batchID,
			BatchName:     cols.cell(row, "Batch Name"),
			Grouping:      cols.cell(row, "Transaction Grouping"),
			COACategory:   cols.cell(row, "COA Category"),
			PaymentType:   cols.cell(row, "Payment Type"),
			CheckNumber:   cols.cell(row, "Check Number"),
			Memo:          cols.cell(row, "Memo"),
			TaxDeductible: cols.cell(row, "Tax Deductible"),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// TransactionOverride is one row of the per-transaction correction sheet.
// Zero FamilyID and empty COACategory mean the field is untouched.
type TransactionOverride struct {
	TransactionID int64
	FamilyID      int64
	COACategory   string
}

// ApplyTransactionOverrides rewrites individual transactions per the
// override sheet and registers any invented family ids as giving families.
func ApplyTransactionOverrides(txs []*domain.Transaction, overrides []TransactionOverride, givingFamIDs map[int64]struct{}) {
	byID := make(map[int64]TransactionOverride, len(overrides))
	for _, o := range overrides {
		byID[o.TransactionID] = o
	}
	for _, tx := range txs {
		o, ok := byID[tx.TransactionID]
		if !ok {
			continue
		}
		if o.FamilyID != 0 {
			tx.FamilyID = o.FamilyID
		}
		if o.COACategory != "" {
			tx.COACategory = o.COACategory
		}
		if tx.FamilyID >= syntheticFamilyIDFloor {
			givingFamIDs[tx.FamilyID] = struct{}{}
		}
	}
}
