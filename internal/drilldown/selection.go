// Package drilldown holds the month and category selection of a dashboard
// session. Reduce is the only way a Selection changes; Controller serializes
// calls to it and pushes the resulting range changes to the range owner.
package drilldown

import (
	"fmt"
	"strings"

	"painel/internal/core"
)

// Selection is the drill-down state. Month and Category are independent.
type Selection struct {
	Month      *core.MonthKey `json:"month,omitempty"`
	MonthLabel string         `json:"monthLabel,omitempty"`
	Category   string         `json:"category,omitempty"`
}

func (s Selection) HasMonth() bool    { return s.Month != nil }
func (s Selection) HasCategory() bool { return s.Category != "" }

// IsIdle reports whether nothing is selected.
func (s Selection) IsIdle() bool { return !s.HasMonth() && !s.HasCategory() }

// Equal compares selections by value.
func (s Selection) Equal(o Selection) bool {
	if s.HasMonth() != o.HasMonth() {
		return false
	}
	if s.HasMonth() && *s.Month != *o.Month {
		return false
	}
	return s.MonthLabel == o.MonthLabel && s.Category == o.Category
}

func (s Selection) String() string {
	month, category := "-", "-"
	if s.HasMonth() {
		month = s.Month.String()
	}
	if s.HasCategory() {
		category = s.Category
	}
	return fmt.Sprintf("month=%s category=%s", month, category)
}

type (
	// Action is a user intent applied by Reduce.
	Action interface {
		isAction()
	}

	// SelectMonth toggles a month identified by its key. Label is the
	// display text the caller showed; it is recomputed when empty.
	SelectMonth struct {
		Key   core.MonthKey
		Label string
	}

	// SelectMonthLabel toggles a month identified only by its rendered
	// label, which is parsed back with the session's labeler.
	SelectMonthLabel struct {
		Label string
	}

	// SelectCategory toggles a category. An empty category clears it.
	SelectCategory struct {
		Category string
	}

	// ClearAll resets both axes.
	ClearAll struct{}
)

func (SelectMonth) isAction()      {}
func (SelectMonthLabel) isAction() {}
func (SelectCategory) isAction()   {}
func (ClearAll) isAction()         {}

type (
	// Effect is a notification produced by a transition.
	Effect interface {
		isEffect()
	}

	// RangeChanged asks the range owner to show Range.
	RangeChanged struct {
		Range core.DateRange
	}

	// CategoryChanged announces the new category; empty means cleared.
	CategoryChanged struct {
		Category string
	}
)

func (RangeChanged) isEffect()    {}
func (CategoryChanged) isEffect() {}

// Env carries what transitions need from the outside world.
type Env struct {
	Calendar core.Calendar
	Labeler  core.MonthLabeler
}

// Reduce applies a to s. On error the returned selection is s unchanged and
// there are no effects.
func Reduce(env Env, s Selection, a Action) (Selection, []Effect, error) {
	switch a := a.(type) {
	case SelectMonth:
		return selectMonth(env, s, a.Key, a.Label)
	case SelectMonthLabel:
		key, err := env.Labeler.Parse(a.Label)
		if err != nil {
			return s, nil, err
		}
		return selectMonth(env, s, key, env.Labeler.Format(key))
	case SelectCategory:
		next := selectCategory(s, a.Category)
		return next, []Effect{CategoryChanged{Category: next.Category}}, nil
	case ClearAll:
		return Selection{}, []Effect{
			RangeChanged{Range: env.Calendar.CurrentMonth().Range()},
			CategoryChanged{},
		}, nil
	case nil:
		return s, nil, fmt.Errorf("nil drill-down action")
	default:
		return s, nil, fmt.Errorf("unsupported drill-down action %T", a)
	}
}

func selectMonth(env Env, s Selection, key core.MonthKey, label string) (Selection, []Effect, error) {
	if !key.IsValid() {
		return s, nil, fmt.Errorf("%w: %v", core.ErrInvalidMonthKey, key)
	}
	if s.HasMonth() && *s.Month == key {
		s.Month = nil
		s.MonthLabel = ""
		return s, []Effect{RangeChanged{Range: env.Calendar.CurrentMonth().Range()}}, nil
	}
	if strings.TrimSpace(label) == "" {
		label = env.Labeler.Format(key)
	}
	k := key
	s.Month = &k
	s.MonthLabel = label
	return s, []Effect{RangeChanged{Range: key.Range()}}, nil
}

func selectCategory(s Selection, category string) Selection {
	category = strings.TrimSpace(category)
	if category == "" || core.FoldKey(category) == core.FoldKey(s.Category) {
		s.Category = ""
		return s
	}
	s.Category = category
	return s
}
