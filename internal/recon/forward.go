package recon

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"givingreport/internal/domain"
)

// ResultKind tags the outcome of applying the request map to one donation.
type ResultKind int

const (
	// Unchanged means no request targeted the donation.
	Unchanged ResultKind = iota
	// FullyRecharacterized means the whole amount moved to Projects.
	FullyRecharacterized
	// Split means part of the amount moved to a new Projects row.
	Split
	// InverseRecharacterized means the inverse pass moved the amount out of
	// Projects because no assignment backed it.
	InverseRecharacterized
	// InverseProposed means the inverse pass annotated the donation with a
	// proposed correction but changed nothing.
	InverseProposed
)

// Result is the tagged outcome for one donation. Remaining and Moved are only
// populated for Split.
type Result struct {
	Kind      ResultKind
	Remaining decimal.Decimal
	Moved     decimal.Decimal
}

// Used records which requests matched a donation during the forward pass.
type Used map[Key]bool

// Forward applies the request map to the working table in place and returns
// the set of used request keys. Split children are inserted directly after
// their parent row.
func Forward(t *domain.Table, reqs Requests, log zerolog.Logger) Used {
	used := make(Used, len(reqs))
	for i := 0; i < len(t.Rows); i++ {
		d := t.Rows[i]
		res := applyOne(t, i, d, reqs, used, log)
		if res.Kind == Split {
			// Skip the child row we just inserted.
			i++
		}
	}
	return used
}

// applyOne is a total function over the equal/less/greater branches for a
// single donation.
func applyOne(t *domain.Table, i int, d *domain.Donation, reqs Requests, used Used, log zerolog.Logger) Result {
	key, ok := KeyFor(d)
	if !ok {
		return Result{Kind: Unchanged}
	}
	requested, ok := reqs[key]
	if !ok || used[key] {
		// A request matches exactly one donation; when two donations collide
		// onto the same key the first row in table order wins.
		return Result{Kind: Unchanged}
	}

	switch {
	case withinTolerance(requested, d.Amount):
		reason := fmt.Sprintf("Recharacterized %s from %q to %q per project assignment %s",
			FormatUSD(d.Amount), d.Category, domain.CategoryProjects, key)
		d.SetCategory(domain.CategoryProjects, reason)
		used[key] = true
		log.Debug().Str("key", key.String()).Msg("donation fully recharacterized")
		return Result{Kind: FullyRecharacterized}

	case requested.LessThan(d.Amount):
		remaining := d.Amount.Sub(requested)
		d.SetAmount(remaining, fmt.Sprintf("Left %s as %q after moving %s to %q per project assignment %s",
			FormatUSD(remaining), d.Category, FormatUSD(requested), domain.CategoryProjects, key))

		child := d.Clone()
		child.Comments = nil
		child.Changes = nil
		child.Amount = requested
		child.Category = domain.CategoryProjects
		child.Annotate(fmt.Sprintf("Recharacterized %s of the %s donation made %s from %q to %q per project assignment %s",
			FormatUSD(requested), FormatUSD(key.Amount()), d.Date.Format("1/2/2006"), key.Category(), domain.CategoryProjects, key))
		t.InsertAfter(i, child)
		used[key] = true
		log.Debug().Str("key", key.String()).
			Str("remaining", remaining.StringFixed(2)).
			Str("moved", requested.StringFixed(2)).
			Msg("donation split")
		return Result{Kind: Split, Remaining: remaining, Moved: requested}

	default:
		// Unreachable when requests come from ParseAssignments, which rejects
		// over-amount rows, but accumulation across rows can still overshoot.
		log.Error().
			Str("key", key.String()).
			Str("requested", requested.StringFixed(2)).
			Str("donation", d.Amount.StringFixed(2)).
			Msg("request exceeds donation amount; leaving donation unchanged")
		return Result{Kind: Unchanged}
	}
}

// withinTolerance reports whether two amounts agree to within one cent.
func withinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(centTolerance)
}
