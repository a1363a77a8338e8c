package recon

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"givingreport/internal/domain"
)

// Requests accumulates recharacterization amounts per match key. Multiple
// sheet rows targeting the same key add up into one logical request.
type Requests map[Key]decimal.Decimal

// SortedKeys returns the request keys in canonical text order so that log
// output and downstream iteration are deterministic run to run.
func (r Requests) SortedKeys() []Key {
	keys := make([]Key, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// ParseAssignments turns the raw project assignments sheet into the request
// map. Row-level problems are logged and skipped; the batch never aborts.
func ParseAssignments(rows []domain.AssignmentRow, log zerolog.Logger) Requests {
	reqs := make(Requests)
	for _, row := range rows {
		amount := normalizeAmount(row.Amount)
		find := strings.TrimSpace(row.Find)

		switch {
		case find == domain.FindUnmatched && strings.Contains(row.Match, domain.MarkNotReceived):
			// Acknowledged pledge that has not arrived yet.
			continue
		case find == "" || find == domain.FindUnmatched:
			log.Warn().
				Str("names", row.FullNames).
				Str("amount", amount.StringFixed(2)).
				Msg("project funding not yet matched to a donation")
			continue
		case find == domain.FindAutoMatch:
			continue
		}

		key, err := ParseKey(find)
		if err != nil {
			log.Error().Err(err).Msg("skipping unparsable project assignment")
			continue
		}
		if key.Category() == domain.CategoryProjects {
			// Already categorized as Projects; nothing to move.
			continue
		}
		if amount.GreaterThan(key.Amount()) {
			log.Error().
				Str("key", key.String()).
				Str("requested", amount.StringFixed(2)).
				Str("donation", key.Amount().StringFixed(2)).
				Msg("skipping assignment that exceeds the donation amount")
			continue
		}
		reqs[key] = reqs[key].Add(amount)
	}
	return reqs
}

// normalizeAmount strips currency formatting and returns a non-negative
// decimal; blank or unparsable input counts as zero.
func normalizeAmount(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}
