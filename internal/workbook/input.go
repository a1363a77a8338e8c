// Package workbook reads the override workbook and writes the timestamped
// output workbook.
package workbook

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"givingreport/internal/dataset"
	"givingreport/internal/domain"
)

// Input sheet names. All of them must exist in the override workbook.
const (
	sheetAddFamilies         = "AddFamilies"
	sheetIndividualUpdate    = "IndividualUpdate"
	sheetIndividualConcat    = "IndividualConcat"
	sheetCoaRemap            = "CoaRemap"
	sheetMatchedTransactions = "MatchedTransactions"
	sheetProjectAssignments  = "ProjectAssignments"
)

// Input is the parsed override workbook.
type Input struct {
	AddFamilies []int64
	Updates     []dataset.IndividualUpdate
	Concat      []*domain.Individual
	CoaRemap    map[string]string
	Overrides   []dataset.TransactionOverride
	Assignments []domain.AssignmentRow
}

// ReadInput opens the override workbook and parses every sheet. A missing
// workbook or sheet is fatal; row-level problems are returned as errors too
// because a silently dropped override row corrupts the output.
func ReadInput(path string) (*Input, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("workbook: open %s: %w", path, err)
	}
	defer f.Close()

	in := &Input{}
	if in.AddFamilies, err = readAddFamilies(f); err != nil {
		return nil, err
	}
	if in.Updates, err = readUpdates(f); err != nil {
		return nil, err
	}
	if in.Concat, err = readConcat(f); err != nil {
		return nil, err
	}
	if in.CoaRemap, err = readCoaRemap(f); err != nil {
		return nil, err
	}
	if in.Overrides, err = readOverrides(f); err != nil {
		return nil, err
	}
	if in.Assignments, err = readAssignments(f); err != nil {
		return nil, err
	}
	return in, nil
}

func sheetRows(f *excelize.File, sheet string) ([][]string, columns, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("workbook: sheet %s: %w", sheet, domain.ErrSheetMissing)
	}
	if len(rows) == 0 {
		return nil, columns{}, nil
	}
	return rows[1:], indexColumns(rows[0]), nil
}

func readAddFamilies(f *excelize.File) ([]int64, error) {
	rows, cols, err := sheetRows(f, sheetAddFamilies)
	if err != nil {
		return nil, err
	}
	var out []int64
	for _, row := range rows {
		raw := cols.cell(row, "Family ID")
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("workbook: %s family id %q: %w", sheetAddFamilies, raw, err)
		}
		out = append(out, id)
	}
	return out, nil
}

func readUpdates(f *excelize.File) ([]dataset.IndividualUpdate, error) {
	rows, cols, err := sheetRows(f, sheetIndividualUpdate)
	if err != nil {
		return nil, err
	}
	var out []dataset.IndividualUpdate
	for _, row := range rows {
		raw := cols.cell(row, "Ind ID")
		if raw == "" {
			continue
		}
		indID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("workbook: %s individual id %q: %w", sheetIndividualUpdate, raw, err)
		}
		u := dataset.IndividualUpdate{IndID: indID, Fields: make(map[string]string)}
		if famRaw := cols.cell(row, "Family ID"); famRaw != "" {
			u.FamilyID, err = strconv.ParseInt(famRaw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("workbook: %s family id %q: %w", sheetIndividualUpdate, famRaw, err)
			}
		}
		for name := range cols {
			if name == "Ind ID" || name == "Family ID" {
				continue
			}
			if v := cols.cell(row, name); v != "" {
				u.Fields[name] = v
			}
		}
		out = append(out, u)
	}
	return out, nil
}

func readConcat(f *excelize.File) ([]*domain.Individual, error) {
	rows, err := f.GetRows(sheetIndividualConcat)
	if err != nil {
		return nil, fmt.Errorf("workbook: sheet %s: %w", sheetIndividualConcat, domain.ErrSheetMissing)
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	inds, err := dataset.ParseIndividuals(rows)
	if err != nil {
		return nil, fmt.Errorf("workbook: %s: %w", sheetIndividualConcat, err)
	}
	return inds, nil
}

func readCoaRemap(f *excelize.File) (map[string]string, error) {
	rows, cols, err := sheetRows(f, sheetCoaRemap)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, row := range rows {
		coa := cols.cell(row, "COA")
		if coa == "" {
			continue
		}
		out[coa] = cols.cell(row, "New COA")
	}
	return out, nil
}

func readOverrides(f *excelize.File) ([]dataset.TransactionOverride, error) {
	rows, cols, err := sheetRows(f, sheetMatchedTransactions)
	if err != nil {
		return nil, err
	}
	var out []dataset.TransactionOverride
	for _, row := range rows {
		raw := cols.cell(row, "Transaction ID")
		if raw == "" {
			continue
		}
		txID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("workbook: %s transaction id %q: %w", sheetMatchedTransactions, raw, err)
		}
		o := dataset.TransactionOverride{
			TransactionID: txID,
			COACategory:   cols.cell(row, "Override COA Category"),
		}
		if famRaw := cols.cell(row, "Override Fam ID"); famRaw != "" {
			o.FamilyID, err = strconv.ParseInt(famRaw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("workbook: %s family id %q: %w", sheetMatchedTransactions, famRaw, err)
			}
		}
		out = append(out, o)
	}
	return out, nil
}

func readAssignments(f *excelize.File) ([]domain.AssignmentRow, error) {
	rows, cols, err := sheetRows(f, sheetProjectAssignments)
	if err != nil {
		return nil, err
	}
	out := make([]domain.AssignmentRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.AssignmentRow{
			Find:             cols.cell(row, "Find"),
			Match:            cols.cell(row, "Match"),
			Amount:           cols.cell(row, "Amount"),
			Placeholder:      cols.cell(row, "Placeholder Value"),
			FullNames:        cols.cell(row, "Full Name(s)"),
			First:            cols.cell(row, "First"),
			Last:             cols.cell(row, "Last"),
			OverrideCategory: cols.cell(row, "Override Category"),
		})
	}
	return out, nil
}

// columns indexes a sheet's header row by column name.
type columns map[string]int

func indexColumns(header []string) columns {
	c := make(columns, len(header))
	for i, name := range header {
		if _, ok := c[name]; !ok {
			c[name] = i
		}
	}
	return c
}

func (c columns) cell(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
