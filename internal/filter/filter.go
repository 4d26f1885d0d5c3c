// Package filter narrows transaction snapshots by day range and category.
// Filters never mutate their input and degrade to pass-through on malformed
// criteria.
package filter

import (
	"painel/internal/core"
)

// ByDateRange keeps the transactions whose day falls inside r, bounds
// included. A nil range, or one whose From is not a valid date, keeps
// everything. A zero To selects From alone; a To before From is swapped.
func ByDateRange(txs []core.Transaction, r *core.DateRange) []core.Transaction {
	if r == nil || !r.From.IsValid() {
		return clone(txs)
	}
	window := r.Ordered()
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if window.Contains(tx.OccurredOn) {
			out = append(out, tx)
		}
	}
	return out
}

// ByCategory keeps the transactions of one category, compared without case
// or accents. An empty category keeps everything.
func ByCategory(txs []core.Transaction, category string) []core.Transaction {
	if category == "" {
		return clone(txs)
	}
	want := core.FoldKey(category)
	if want == "" {
		return clone(txs)
	}
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if core.FoldKey(tx.Category) == want {
			out = append(out, tx)
		}
	}
	return out
}

// ParseRange reads a day range from its string bounds using the calendar's
// reference zone. It returns nil, meaning no filter, when from is empty or
// malformed. A malformed to is treated as absent.
func ParseRange(cal core.Calendar, from, to string) *core.DateRange {
	start, err := cal.ParseDate(from)
	if err != nil {
		return nil
	}
	r := &core.DateRange{From: start}
	if end, err := cal.ParseDate(to); err == nil {
		r.To = end
	}
	return r
}

// Categories lists the distinct categories in txs in first-seen order,
// merging spellings that differ only by case or accents.
func Categories(txs []core.Transaction) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tx := range txs {
		if tx.Category == "" {
			continue
		}
		key := core.FoldKey(tx.Category)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tx.Category)
	}
	return out
}

func clone(txs []core.Transaction) []core.Transaction {
	return append([]core.Transaction(nil), txs...)
}
