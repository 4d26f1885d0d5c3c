package core

import (
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

const (
	Inflow  Kind = "inflow"
	Outflow Kind = "outflow"
)

const (
	Monthly   GoalPeriod = "monthly"
	Quarterly GoalPeriod = "quarterly"
	Yearly    GoalPeriod = "yearly"
)

type (
	// Kind is the canonical direction of a transaction.
	Kind string

	GoalPeriod string

	// RawTransaction is a transaction as delivered by a source, before
	// normalization. Amount may be a string, a number, a decimal or nil.
	RawTransaction struct {
		ID          string
		OwnerID     string
		Date        string
		Kind        string
		Category    string
		Amount      any
		Description string
	}

	Transaction struct {
		ID          string          `json:"id"`
		OwnerID     string          `json:"ownerId"`
		OccurredOn  civil.Date      `json:"occurredOn"`
		Kind        Kind            `json:"kind"`
		Category    string          `json:"category"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description,omitempty"`
	}

	// Goal is a per-category spending target. ReferenceMonth and
	// ReferenceYear locate the period; ReferenceMonth is ignored for
	// yearly goals.
	Goal struct {
		ID             string          `json:"id"`
		OwnerID        string          `json:"ownerId"`
		Category       string          `json:"category"`
		TargetAmount   decimal.Decimal `json:"targetAmount"`
		Period         GoalPeriod      `json:"period"`
		ReferenceMonth int             `json:"referenceMonth,omitempty"`
		ReferenceYear  int             `json:"referenceYear"`
	}

	// PeriodKey selects goals from a GoalSource.
	PeriodKey struct {
		Year  int `json:"year"`
		Month int `json:"month"` // 0 selects every goal of the year
	}

	// DateRange is an inclusive day range. A zero To means the range
	// covers From only.
	DateRange struct {
		From civil.Date `json:"from"`
		To   civil.Date `json:"to"`
	}
)

func (k Kind) IsValid() bool {
	return k == Inflow || k == Outflow
}

func (p GoalPeriod) IsValid() bool {
	switch p {
	case Monthly, Quarterly, Yearly:
		return true
	default:
		return false
	}
}

// Raw converts a normalized transaction back to the shape sources store.
func (t Transaction) Raw() RawTransaction {
	return RawTransaction{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		Date:        t.OccurredOn.String(),
		Kind:        string(t.Kind),
		Category:    t.Category,
		Amount:      t.Amount.String(),
		Description: t.Description,
	}
}

// Validate checks the mandatory fields of a goal at the write boundary.
func (g Goal) Validate() error {
	if strings.TrimSpace(g.OwnerID) == "" {
		return ErrInvalidOwner
	}
	if strings.TrimSpace(g.Category) == "" {
		return ErrEmptyCategory
	}
	if g.TargetAmount.IsNegative() {
		return ErrNegativeTarget
	}
	if !g.Period.IsValid() {
		return ErrInvalidPeriod
	}
	if g.ReferenceYear < 1 {
		return ErrInvalidReference
	}
	if g.Period != Yearly && (g.ReferenceMonth < 1 || g.ReferenceMonth > 12) {
		return ErrInvalidReference
	}
	return nil
}

// Matches reports whether the goal belongs to the period selected by k.
func (g Goal) Matches(k PeriodKey) bool {
	if g.ReferenceYear != k.Year {
		return false
	}
	if k.Month == 0 {
		return true
	}
	switch g.Period {
	case Monthly:
		return g.ReferenceMonth == k.Month
	case Quarterly:
		return (g.ReferenceMonth-1)/3 == (k.Month-1)/3
	default:
		return true
	}
}

// End returns the last day covered by the range.
func (r DateRange) End() civil.Date {
	if r.To.IsZero() {
		return r.From
	}
	return r.To
}

// Ordered returns r with From and To swapped when To is before From.
func (r DateRange) Ordered() DateRange {
	if !r.To.IsZero() && r.To.Before(r.From) {
		r.From, r.To = r.To, r.From
	}
	return r
}

// Contains reports whether d falls inside the inclusive range.
func (r DateRange) Contains(d civil.Date) bool {
	return !d.Before(r.From) && !d.After(r.End())
}

func (r DateRange) String() string {
	return r.From.String() + ".." + r.End().String()
}
