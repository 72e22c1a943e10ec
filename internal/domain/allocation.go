package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

type TenderMode string

const (
	TenderCash   TenderMode = "CASH"
	TenderUPI    TenderMode = "UPI"
	TenderCard   TenderMode = "CARD"
	TenderCredit TenderMode = "CREDIT"
	TenderBank   TenderMode = "BANK"
)

// splitEpsilon is the tolerance below which a split is considered balanced.
var splitEpsilon = decimal.RequireFromString("0.001")

// SplitTolerance is the maximum accepted difference between a transaction
// amount and the sum of its allocations (0.01 currency units).
var SplitTolerance = decimal.RequireFromString("0.01")

// ValidTenderMode reports whether m is a known tender mode.
func ValidTenderMode(m TenderMode) bool {
	switch m {
	case TenderCash, TenderUPI, TenderCard, TenderCredit, TenderBank:
		return true
	}
	return false
}

// BalanceBearing reports whether the tender mode moves the day's running
// balances. Only Cash and UPI do; Card, Credit and Bank affect income and
// expense totals without touching the drawer.
func BalanceBearing(m TenderMode) bool {
	return m == TenderCash || m == TenderUPI
}

// SplitAmount is one tender mode's share of a transaction amount.
type SplitAmount struct {
	Amount decimal.Decimal `json:"amount"`
	Auto   bool            `json:"auto"`
}

// Split maps tender modes to their allocated amounts. Ordering lives in the
// caller's mode list; a Split alone carries no order.
type Split map[TenderMode]SplitAmount

// Sum returns the total allocated across all modes.
func (s Split) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, e := range s {
		total = total.Add(e.Amount)
	}
	return total
}

// Mismatch returns total minus the allocated sum. A non-zero mismatch beyond
// SplitTolerance means the user must resolve the split by hand.
func (s Split) Mismatch(total decimal.Decimal) decimal.Decimal {
	return total.Sub(s.Sum())
}

// Balanced reports whether the split sums to total within SplitTolerance.
func (s Split) Balanced(total decimal.Decimal) bool {
	return s.Mismatch(total).Abs().LessThanOrEqual(SplitTolerance)
}

// DistributeSplit recomputes a split after the total changed or a mode was
// added. Modes still flagged auto, and modes with a zero or missing amount,
// share the remainder left after honoring manual entries; manual amounts are
// never touched. When every mode is manual the whole split resets to auto.
//
// The equal shares are rounded to 2 decimals and the rounding residue is
// absorbed by the last distributable mode, unless that would drive it
// negative, in which case the residue is left visible for the user.
func DistributeSplit(prev Split, modes []TenderMode, total decimal.Decimal) Split {
	next := make(Split, len(modes))
	for _, m := range modes {
		if e, ok := prev[m]; ok {
			next[m] = e
		}
	}

	if len(modes) == 0 {
		return next
	}

	if total.Sign() <= 0 {
		for _, m := range modes {
			next[m] = SplitAmount{Amount: decimal.Zero, Auto: true}
		}
		return next
	}

	if len(modes) == 1 {
		next[modes[0]] = SplitAmount{Amount: total, Auto: true}
		return next
	}

	distributable := distributableModes(next, modes, nil)
	if len(distributable) == 0 {
		distributable = append(distributable, modes...)
	}
	return spread(next, modes, distributable, total)
}

// ApplyManualSplit records a user-entered amount for one mode. That mode
// becomes manual and the remaining auto/zero modes re-split whatever is left.
// When every other mode is also manual, the last other mode becomes the
// distribution target so the split cannot get stuck.
func ApplyManualSplit(prev Split, modes []TenderMode, total decimal.Decimal, mode TenderMode, amount decimal.Decimal) Split {
	next := make(Split, len(modes))
	for _, m := range modes {
		if e, ok := prev[m]; ok {
			next[m] = e
		}
	}
	next[mode] = SplitAmount{Amount: amount, Auto: false}

	if len(modes) <= 1 || total.Sign() <= 0 {
		return next
	}

	distributable := distributableModes(next, modes, &mode)
	if len(distributable) == 0 {
		for i := len(modes) - 1; i >= 0; i-- {
			if modes[i] != mode {
				distributable = []TenderMode{modes[i]}
				break
			}
		}
	}
	if len(distributable) == 0 {
		return next
	}
	return spread(next, modes, distributable, total)
}

// RemoveSplitMode drops a mode's allocation and re-splits across what
// remains. The removed mode's auto flag is discarded with it.
func RemoveSplitMode(prev Split, remaining []TenderMode, total decimal.Decimal) Split {
	next := make(Split, len(remaining))
	for _, m := range remaining {
		if e, ok := prev[m]; ok {
			next[m] = e
		}
	}

	if len(remaining) == 0 || total.Sign() <= 0 {
		return DistributeSplit(next, remaining, total)
	}
	if len(remaining) == 1 {
		next[remaining[0]] = SplitAmount{Amount: total, Auto: true}
		return next
	}

	distributable := distributableModes(next, remaining, nil)
	if len(distributable) == 0 {
		// Everything left is manual; the last-added mode soaks up the change.
		distributable = []TenderMode{remaining[len(remaining)-1]}
	}
	return spread(next, remaining, distributable, total)
}

// distributableModes returns, in mode-list order, the modes eligible for
// auto distribution: flagged auto or holding a zero/absent amount. A mode in
// exclude is never distributable (it was just edited manually).
func distributableModes(s Split, modes []TenderMode, exclude *TenderMode) []TenderMode {
	var out []TenderMode
	for _, m := range modes {
		if exclude != nil && m == *exclude {
			continue
		}
		e, ok := s[m]
		if !ok || e.Auto || e.Amount.Sign() == 0 {
			out = append(out, m)
		}
	}
	return out
}

// spread splits (total - manual sum) equally across the distributable modes
// and corrects the 2-decimal rounding residue on the last of them.
func spread(s Split, modes, distributable []TenderMode, total decimal.Decimal) Split {
	isDistributable := make(map[TenderMode]bool, len(distributable))
	for _, m := range distributable {
		isDistributable[m] = true
	}

	manualSum := decimal.Zero
	for _, m := range modes {
		if isDistributable[m] {
			continue
		}
		manualSum = manualSum.Add(s[m].Amount)
	}

	remaining := total.Sub(manualSum)
	if remaining.Sign() < 0 {
		remaining = decimal.Zero
	}

	perMode := remaining.Div(decimal.NewFromInt(int64(len(distributable)))).Round(2)
	for _, m := range distributable {
		s[m] = SplitAmount{Amount: perMode, Auto: true}
	}

	allocated := decimal.Zero
	for _, m := range modes {
		allocated = allocated.Add(s[m].Amount)
	}
	diff := total.Sub(allocated)
	if diff.Abs().GreaterThan(splitEpsilon) {
		last := distributable[len(distributable)-1]
		corrected := s[last].Amount.Add(diff)
		if corrected.Sign() >= 0 {
			s[last] = SplitAmount{Amount: corrected, Auto: true}
		}
	}
	return s
}

// Allocation is the persisted form of one mode's share.
type Allocation struct {
	Mode           TenderMode      `json:"mode"`
	Amount         decimal.Decimal `json:"amount"`
	AutoCalculated bool            `json:"autoCalculated"`
}

// Allocations flattens a split into the persisted ordered form.
func (s Split) Allocations(modes []TenderMode) []Allocation {
	out := make([]Allocation, 0, len(modes))
	for _, m := range modes {
		e := s[m]
		out = append(out, Allocation{Mode: m, Amount: e.Amount, AutoCalculated: e.Auto})
	}
	return out
}

// AllocationSum totals a persisted allocation list.
func AllocationSum(allocs []Allocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocs {
		total = total.Add(a.Amount)
	}
	return total
}

// ModesLabel renders the comma-joined tender label list recorded alongside a
// transaction ("CASH,UPI").
func ModesLabel(allocs []Allocation) string {
	labels := make([]string, len(allocs))
	for i, a := range allocs {
		labels[i] = string(a.Mode)
	}
	return strings.Join(labels, ",")
}
