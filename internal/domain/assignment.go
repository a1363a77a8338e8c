package domain

// Sentinel values that appear in the Find column of the project assignments
// sheet. They are entered by the spreadsheet's VLOOKUP formulas and by hand.
const (
	FindUnmatched   = "#N/A"
	FindAutoMatch   = "*AUTO MATCH*"
	MarkNotReceived = "NOT_RECEIVED"
)

// AssignmentRow is one raw row of the human-maintained project assignments
// sheet. Amount stays a string until the parser normalizes it; the sheet mixes
// currency-formatted text and plain numbers.
type AssignmentRow struct {
	Find             string
	Match            string
	Amount           string
	Placeholder      string
	FullNames        string
	First            string
	Last             string
	OverrideCategory string
}
