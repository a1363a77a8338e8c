// Package recon implements the donation recharacterization and reconciliation
// engine: project-assignment overrides are applied to a working copy of the
// donation table (forward pass), then Projects-labeled amounts with no backing
// assignment are detected and corrected or flagged (inverse pass). Total
// monetary value is conserved across both passes.
package recon

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"givingreport/internal/domain"
)

// matchKeyRE is the right-anchored suffix grammar of a match key. The name
// portion is greedy so the date/amount/code fields are taken from the right
// end of the string; donor names may themselves contain hyphens.
var matchKeyRE = regexp.MustCompile(`^(.*)-(\d{8})-\$?([\d,]+\.\d{2})-([A-Z]+)$`)

// usd renders grouped dollar amounts for keys, comments, and log lines.
var usd = message.NewPrinter(language.AmericanEnglish)

// Key is the canonical identity of a donation: last name, first name,
// date (YYYYMMDD), amount in cents, and category short code. It is a
// comparable value type so it can key the request map directly instead of a
// formatted Find string.
type Key struct {
	Last   string
	First  string
	Date   string
	Cents  int64
	Abbrev string
}

// KeyFor derives the match key of a donation. The second return is false when
// the donation's category has no short code, i.e. it is not one of the five
// recharacterizable categories.
func KeyFor(d *domain.Donation) (Key, bool) {
	code, ok := d.Category.Abbrev()
	if !ok {
		return Key{}, false
	}
	return Key{
		Last:   d.Last,
		First:  d.First,
		Date:   d.Date.Format("20060102"),
		Cents:  toCents(d.Amount),
		Abbrev: code,
	}, true
}

// ParseKey decodes a Find string into a Key. The suffix fields are parsed
// first; the remaining name portion splits into last/first on its last hyphen.
func ParseKey(s string) (Key, error) {
	m := matchKeyRE.FindStringSubmatch(s)
	if m == nil {
		return Key{}, fmt.Errorf("recon: %w: %q", domain.ErrBadMatchKey, s)
	}
	name, date, rawAmount, code := m[1], m[2], m[3], m[4]
	cut := strings.LastIndex(name, "-")
	if cut < 0 {
		return Key{}, fmt.Errorf("recon: %w: %q has no last/first separator", domain.ErrBadMatchKey, s)
	}
	if _, ok := domain.CategoryFromAbbrev(code); !ok {
		return Key{}, fmt.Errorf("recon: %w: %q in %q", domain.ErrUnknownCategory, code, s)
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(rawAmount, ",", ""))
	if err != nil {
		return Key{}, fmt.Errorf("recon: %w: amount %q: %v", domain.ErrBadMatchKey, rawAmount, err)
	}
	return Key{
		Last:   name[:cut],
		First:  name[cut+1:],
		Date:   date,
		Cents:  toCents(amount),
		Abbrev: code,
	}, nil
}

// Amount returns the key's encoded donation amount.
func (k Key) Amount() decimal.Decimal {
	return decimal.New(k.Cents, -2)
}

// Year returns the calendar year embedded in the key's date.
func (k Key) Year() int {
	t, err := time.Parse("20060102", k.Date)
	if err != nil {
		return 0
	}
	return t.Year()
}

// Category returns the simplified category named by the key's short code.
func (k Key) Category() domain.Category {
	cat, _ := domain.CategoryFromAbbrev(k.Abbrev)
	return cat
}

// String reconstructs the canonical Find text of the key.
func (k Key) String() string {
	return fmt.Sprintf("%s-%s-%s-%s-%s", k.Last, k.First, k.Date, FormatAmount(k.Amount()), k.Abbrev)
}

// FormatAmount renders an amount with thousands grouping and two decimals,
// the way the assignments sheet formats its Find column.
func FormatAmount(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return usd.Sprintf("%v", number.Decimal(f, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// FormatUSD renders an amount as grouped dollars for comments and logs.
func FormatUSD(d decimal.Decimal) string {
	return "$" + FormatAmount(d)
}

func toCents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}
