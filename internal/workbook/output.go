package workbook

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"givingreport/internal/dataset"
	"givingreport/internal/domain"
)

// Output sheet names.
const (
	sheetSummary          = "Summary (by year)"
	sheetDonations        = "Donations"
	sheetOriginal         = "Original Donations"
	sheetRecharacterized  = "Recharacterized Donations"
	sheetIndividualsOut   = "Individuals (CCB Overlaid)"
	sheetTransactionsOut  = "Transactions (CCB Overlaid)"
	sheetFamiliesOut      = "Families (CCB Overlaid)"
	commentAuthor         = "givingreport"
	earliestRecordedYear  = 2013
	currencyNumberFormat  = "$#,##0.00"
	dateNumberFormat      = "m/d/yy"
	timestampLayout       = "20060102150405"
	sponsorshipRolloverMD = "05-08" // before May 8 "last year" means the year before
)

// Filename names the output workbook after the run start time.
func Filename(startedAt time.Time) string {
	return fmt.Sprintf("ilw_data_%s.xlsx", startedAt.Format(timestampLayout))
}

// Output is everything the writer renders: the assembled dataset, the
// donation table before and after recharacterization, and the run start time
// that fixes the year columns.
type Output struct {
	Data            *dataset.Result
	Original        *domain.Table
	Recharacterized *domain.Table
	StartedAt       time.Time
}

// Write renders the workbook to path.
func Write(path string, out Output) error {
	f := excelize.NewFile()
	defer f.Close()

	w := &writer{f: f, out: out}
	if err := w.run(); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("workbook: save %s: %w", path, err)
	}
	return nil
}

type writer struct {
	f   *excelize.File
	out Output

	currencyStyle int
	dateStyle     int
}

func (w *writer) run() error {
	var err error
	currencyFmt := currencyNumberFormat
	if w.currencyStyle, err = w.f.NewStyle(&excelize.Style{CustomNumFmt: &currencyFmt}); err != nil {
		return fmt.Errorf("workbook: currency style: %w", err)
	}
	dateFmt := dateNumberFormat
	if w.dateStyle, err = w.f.NewStyle(&excelize.Style{CustomNumFmt: &dateFmt}); err != nil {
		return fmt.Errorf("workbook: date style: %w", err)
	}

	if err := w.writeSummary(); err != nil {
		return err
	}
	for _, s := range []struct {
		name  string
		table *domain.Table
	}{
		{sheetDonations, w.out.Recharacterized},
		{sheetOriginal, w.out.Original},
		{sheetRecharacterized, w.out.Recharacterized},
	} {
		if err := w.writeDonations(s.name, s.table); err != nil {
			return err
		}
	}
	if err := w.writeIndividuals(); err != nil {
		return err
	}
	if err := w.writeTransactions(); err != nil {
		return err
	}
	if err := w.writeFamilies(); err != nil {
		return err
	}
	// The default sheet excelize creates is replaced by the summary.
	return w.f.DeleteSheet("Sheet1")
}

func (w *writer) newSheet(name string) error {
	if _, err := w.f.NewSheet(name); err != nil {
		return fmt.Errorf("workbook: sheet %s: %w", name, err)
	}
	return nil
}

func (w *writer) setRow(sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("workbook: sheet %s row %d: %w", sheet, row, err)
	}
	return nil
}

func (w *writer) autoFilter(sheet string, lastCol string, rows int) error {
	ref := fmt.Sprintf("A1:%s%d", lastCol, rows)
	if err := w.f.AutoFilter(sheet, ref, nil); err != nil {
		return fmt.Errorf("workbook: sheet %s autofilter: %w", sheet, err)
	}
	return nil
}

func (w *writer) styleColumn(sheet, col string, rows, style int) error {
	if rows < 2 {
		return nil
	}
	return w.f.SetCellStyle(sheet, col+"2", fmt.Sprintf("%s%d", col, rows), style)
}

var donationHeader = []any{
	"Date", "Amount", "First", "Last", "Thank You Note", "Assigned Project",
	"Category", "Tax Deductible", "Payment Type", "Donor Email",
	"Couple Emails", "Couple Names", "Ind ID", "Family ID", "Comments",
}

func (w *writer) writeDonations(sheet string, t *domain.Table) error {
	if err := w.newSheet(sheet); err != nil {
		return err
	}
	if err := w.setRow(sheet, 1, donationHeader); err != nil {
		return err
	}
	for i, d := range t.Rows {
		row := []any{
			d.Date, d.Amount.InexactFloat64(), d.First, d.Last,
			d.ThankYouNote, d.AssignedProject, string(d.Category),
			d.TaxDeductible, d.PaymentType, d.DonorEmail,
			d.CoupleEmails, d.CoupleNames, d.IndID, d.FamilyID,
			d.CommentText(),
		}
		if err := w.setRow(sheet, i+2, row); err != nil {
			return err
		}
	}
	rows := len(t.Rows) + 1
	if err := w.styleColumn(sheet, "A", rows, w.dateStyle); err != nil {
		return err
	}
	if err := w.styleColumn(sheet, "B", rows, w.currencyStyle); err != nil {
		return err
	}
	widths := map[string]float64{
		"A": 10, "B": 13, "C": 18, "D": 19, "E": 18, "F": 19, "G": 19,
		"H": 17, "I": 17, "J": 45, "K": 110, "L": 30, "M": 10, "N": 14, "O": 60,
	}
	if err := w.setWidths(sheet, widths); err != nil {
		return err
	}
	return w.autoFilter(sheet, "O", rows)
}

func (w *writer) writeIndividuals() error {
	sheet := sheetIndividualsOut
	if err := w.newSheet(sheet); err != nil {
		return err
	}
	header := []any{
		"Ind ID", "Family ID", "First", "Last", "Legal first",
		"Family Position", "Gender", "Email", "Reason Left Church",
		"Deceased Date", "Home Phone", "Mobile Phone", "Mailing Street",
		"Mailing City", "Mailing State", "Mailing Zip", "Couple Email(s)",
	}
	if err := w.setRow(sheet, 1, header); err != nil {
		return err
	}
	coupleEmails := make(map[int64]string, len(w.out.Data.Families))
	for _, fam := range w.out.Data.Families {
		coupleEmails[fam.FamilyID] = fam.Emails
	}
	for i, ind := range w.out.Data.Individuals {
		row := []any{
			ind.IndID, ind.FamilyID, ind.First, ind.Last, ind.LegalFirst,
			ind.FamilyPosition, ind.Gender, ind.Email, ind.ReasonLeftChurch,
			ind.DeceasedDate, ind.HomePhone, ind.MobilePhone, ind.MailingStreet,
			ind.MailingCity, ind.MailingState, ind.MailingZip,
			coupleEmails[ind.FamilyID],
		}
		if err := w.setRow(sheet, i+2, row); err != nil {
			return err
		}
	}
	rows := len(w.out.Data.Individuals) + 1
	widths := map[string]float64{
		"A": 12, "B": 14, "C": 19, "D": 19, "E": 18, "F": 21, "G": 12,
		"H": 31, "I": 20, "J": 16, "K": 20, "L": 20, "M": 23, "N": 17,
		"O": 14, "P": 12, "Q": 108,
	}
	if err := w.setWidths(sheet, widths); err != nil {
		return err
	}
	return w.autoFilter(sheet, "Q", rows)
}

func (w *writer) writeTransactions() error {
	sheet := sheetTransactionsOut
	if err := w.newSheet(sheet); err != nil {
		return err
	}
	header := []any{
		"Date", "Amount", "Name", "Ind ID", "Family ID", "Transaction ID",
		"Batch ID", "Batch Name", "Transaction Grouping", "COA Category",
		"Payment Type", "Check Number", "Memo", "Tax Deductible",
	}
	if err := w.setRow(sheet, 1, header); err != nil {
		return err
	}
	for i, tx := range w.out.Data.Transactions {
		row := []any{
			tx.Date, tx.Amount.InexactFloat64(), tx.Name, tx.IndID,
			tx.FamilyID, tx.TransactionID, tx.BatchID, tx.BatchName,
			tx.Grouping, tx.COACategory, tx.PaymentType, tx.CheckNumber,
			tx.Memo, tx.TaxDeductible,
		}
		if err := w.setRow(sheet, i+2, row); err != nil {
			return err
		}
	}
	rows := len(w.out.Data.Transactions) + 1
	if err := w.styleColumn(sheet, "A", rows, w.dateStyle); err != nil {
		return err
	}
	if err := w.styleColumn(sheet, "B", rows, w.currencyStyle); err != nil {
		return err
	}
	widths := map[string]float64{
		"A": 11, "B": 14, "C": 34, "D": 12, "E": 14, "F": 19, "G": 13,
		"H": 29, "I": 24, "J": 52, "K": 19, "L": 18, "M": 51, "N": 19,
	}
	if err := w.setWidths(sheet, widths); err != nil {
		return err
	}
	return w.autoFilter(sheet, "N", rows)
}

func (w *writer) writeFamilies() error {
	sheet := sheetFamiliesOut
	if err := w.newSheet(sheet); err != nil {
		return err
	}
	if err := w.setRow(sheet, 1, []any{"Family ID", "Name(s)", "Email(s)", "Primary ID", "Spouse ID"}); err != nil {
		return err
	}
	for i, fam := range w.out.Data.Families {
		row := []any{fam.FamilyID, fam.Names, fam.Emails, fam.PrimaryID, fam.SpouseID}
		if err := w.setRow(sheet, i+2, row); err != nil {
			return err
		}
	}
	widths := map[string]float64{"A": 14, "B": 38, "C": 109, "D": 15, "E": 15}
	if err := w.setWidths(sheet, widths); err != nil {
		return err
	}
	return w.autoFilter(sheet, "E", len(w.out.Data.Families)+1)
}

// sponsorshipLastYear picks which calendar year "last year's sponsorships"
// means; before the spring event the previous year is still the relevant one.
func sponsorshipLastYear(startedAt time.Time) int {
	if startedAt.Format("01-02") < sponsorshipRolloverMD {
		return startedAt.Year() - 1
	}
	return startedAt.Year()
}

type sponsorship struct {
	allTime decimal.Decimal
	byYear  map[int]decimal.Decimal
}

func sponsorshipTotals(t *domain.Table) map[int64]sponsorship {
	out := make(map[int64]sponsorship)
	for _, d := range t.Rows {
		if d.Category != domain.CategorySponsorships {
			continue
		}
		s, ok := out[d.FamilyID]
		if !ok {
			s = sponsorship{byYear: make(map[int]decimal.Decimal)}
		}
		s.allTime = s.allTime.Add(d.Amount)
		s.byYear[d.Year()] = s.byYear[d.Year()].Add(d.Amount)
		out[d.FamilyID] = s
	}
	return out
}

func sumCategories(byCat map[domain.Category]decimal.Decimal) float64 {
	sum := decimal.Zero
	for _, v := range byCat {
		sum = sum.Add(v)
	}
	return sum.InexactFloat64()
}

func (w *writer) writeSummary() error {
	sheet := sheetSummary
	if err := w.newSheet(sheet); err != nil {
		return err
	}

	currYear := w.out.StartedAt.Year()
	lastYear := sponsorshipLastYear(w.out.StartedAt)
	var years []int
	for y := currYear; y >= earliestRecordedYear; y-- {
		years = append(years, y)
	}

	header := []any{
		"Name(s)", "All-Time Sponsorships", fmt.Sprintf("%d Sponsorships", lastYear),
		"Lifetime Giving", "Last 5 Years Giving",
	}
	for _, y := range years {
		header = append(header, fmt.Sprintf("%d", y))
	}
	header = append(header,
		"Last", "Email(s)", "Home Phone", "Primary Mobile Phone",
		"Spouse Mobile Phone", "Mailing Street", "Mailing City",
		"Mailing State", "Mailing Zip", "Family ID", "Primary ID", "Spouse ID")
	if err := w.setRow(sheet, 1, header); err != nil {
		return err
	}

	totals := dataset.GivingTotals(w.out.Recharacterized)
	sponsorships := sponsorshipTotals(w.out.Recharacterized)

	const firstYearCol = 6 // column F holds the current year
	lastYearCol, err := excelize.ColumnNumberToName(firstYearCol + len(years) - 1)
	if err != nil {
		return err
	}

	for i, fam := range w.out.Data.Families {
		rowNum := i + 2
		primary := w.out.Data.People.Individual(fam.PrimaryID)
		row := []any{fam.Names, nil, nil, nil, nil}
		if s, ok := sponsorships[fam.FamilyID]; ok {
			row[1] = s.allTime.InexactFloat64()
			if y, ok := s.byYear[lastYear]; ok {
				row[2] = y.InexactFloat64()
			}
		}
		for _, y := range years {
			var v any
			if byCat, ok := totals[fam.FamilyID][y]; ok {
				v = sumCategories(byCat)
			}
			row = append(row, v)
		}
		var last, homePhone, mobile, street, city, state, zip string
		if primary != nil {
			last, _, homePhone, mobile = primary.Last, primary.Email, primary.HomePhone, primary.MobilePhone
			street, city, state, zip = primary.MailingStreet, primary.MailingCity, primary.MailingState, primary.MailingZip
		}
		var spouseMobile string
		if spouse := w.out.Data.People.Individual(fam.SpouseID); spouse != nil {
			spouseMobile = spouse.MobilePhone
		}
		row = append(row, last, fam.Emails, homePhone, mobile, spouseMobile,
			street, city, state, zip, fam.FamilyID, fam.PrimaryID, fam.SpouseID)
		if err := w.setRow(sheet, rowNum, row); err != nil {
			return err
		}

		lifetime := fmt.Sprintf("SUM(F%d:%s%d)", rowNum, lastYearCol, rowNum)
		if err := w.f.SetCellFormula(sheet, fmt.Sprintf("D%d", rowNum), lifetime); err != nil {
			return err
		}
		recent := fmt.Sprintf("SUM(F%d:K%d)", rowNum, rowNum)
		if err := w.f.SetCellFormula(sheet, fmt.Sprintf("E%d", rowNum), recent); err != nil {
			return err
		}

		if err := w.addGivingComments(sheet, rowNum, fam.FamilyID, currYear, totals); err != nil {
			return err
		}
	}

	rows := len(w.out.Data.Families) + 1
	for col := 2; col <= 4+len(years); col++ {
		name, err := excelize.ColumnNumberToName(col)
		if err != nil {
			return err
		}
		if err := w.styleColumn(sheet, name, rows, w.currencyStyle); err != nil {
			return err
		}
	}
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	widths := map[string]float64{"A": 37, "B": 16, "C": 14, "D": 12, "E": 13}
	if err := w.setWidths(sheet, widths); err != nil {
		return err
	}
	return w.autoFilter(sheet, lastCol, rows)
}

// addGivingComments attaches the per-category breakdown for each year the
// family gave as a comment on that year's summary cell.
func (w *writer) addGivingComments(sheet string, rowNum int, famID int64, currYear int, totals map[int64]map[int]map[domain.Category]decimal.Decimal) error {
	byYear := totals[famID]
	yearsGiven := make([]int, 0, len(byYear))
	for y := range byYear {
		yearsGiven = append(yearsGiven, y)
	}
	sort.Ints(yearsGiven)
	for _, y := range yearsGiven {
		if y < earliestRecordedYear || y > currYear {
			continue
		}
		col := currYear - y + 6
		cell, err := excelize.CoordinatesToCellName(col, rowNum)
		if err != nil {
			return err
		}
		var lines []string
		cats := make([]string, 0, len(byYear[y]))
		for cat := range byYear[y] {
			cats = append(cats, string(cat))
		}
		sort.Strings(cats)
		for _, cat := range cats {
			lines = append(lines, fmt.Sprintf("%s: %s", cat, byYear[y][domain.Category(cat)].StringFixed(2)))
		}
		err = w.f.AddComment(sheet, excelize.Comment{
			Cell:      cell,
			Author:    commentAuthor,
			Paragraph: []excelize.RichTextRun{{Text: strings.Join(lines, "\n")}},
		})
		if err != nil {
			return fmt.Errorf("workbook: summary comment %s: %w", cell, err)
		}
	}
	return nil
}

func (w *writer) setWidths(sheet string, widths map[string]float64) error {
	cols := make([]string, 0, len(widths))
	for col := range widths {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		if err := w.f.SetColWidth(sheet, col, col, widths[col]); err != nil {
			return fmt.Errorf("workbook: sheet %s column %s width: %w", sheet, col, err)
		}
	}
	return nil
}
