package goals

import (
	"fmt"
	"time"

	"painel/internal/core"
)

// PeriodWindow resolves the day range a goal's period covers.
type PeriodWindow interface {
	Window(goal core.Goal) (core.DateRange, error)
}

// MonthlyWindow covers the reference month.
type MonthlyWindow struct{}

func (MonthlyWindow) Window(g core.Goal) (core.DateRange, error) {
	k := core.MonthKey{Year: g.ReferenceYear, Month: time.Month(g.ReferenceMonth)}
	if !k.IsValid() {
		return core.DateRange{}, fmt.Errorf("%w: %d-%02d", core.ErrInvalidReference, g.ReferenceYear, g.ReferenceMonth)
	}
	return k.Range(), nil
}

// QuarterlyWindow covers the calendar quarter containing the reference
// month.
type QuarterlyWindow struct{}

func (QuarterlyWindow) Window(g core.Goal) (core.DateRange, error) {
	k := core.MonthKey{Year: g.ReferenceYear, Month: time.Month(g.ReferenceMonth)}
	if !k.IsValid() {
		return core.DateRange{}, fmt.Errorf("%w: %d-%02d", core.ErrInvalidReference, g.ReferenceYear, g.ReferenceMonth)
	}
	first := core.MonthKey{Year: k.Year, Month: time.Month((int(k.Month)-1)/3*3 + 1)}
	return core.DateRange{From: first.FirstDay(), To: first.AddMonths(2).LastDay()}, nil
}

// YearlyWindow covers the reference year; the reference month is ignored.
type YearlyWindow struct{}

func (YearlyWindow) Window(g core.Goal) (core.DateRange, error) {
	if g.ReferenceYear < 1 {
		return core.DateRange{}, fmt.Errorf("%w: year %d", core.ErrInvalidReference, g.ReferenceYear)
	}
	jan := core.MonthKey{Year: g.ReferenceYear, Month: time.January}
	dec := core.MonthKey{Year: g.ReferenceYear, Month: time.December}
	return core.DateRange{From: jan.FirstDay(), To: dec.LastDay()}, nil
}

var periodWindows = map[core.GoalPeriod]PeriodWindow{
	core.Monthly:   MonthlyWindow{},
	core.Quarterly: QuarterlyWindow{},
	core.Yearly:    YearlyWindow{},
}

// GetPeriodWindow returns the window strategy for a goal period.
func GetPeriodWindow(p core.GoalPeriod) (PeriodWindow, error) {
	w, ok := periodWindows[p]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidPeriod, p)
	}
	return w, nil
}

// Window resolves the day range of g's period.
func Window(g core.Goal) (core.DateRange, error) {
	w, err := GetPeriodWindow(g.Period)
	if err != nil {
		return core.DateRange{}, err
	}
	return w.Window(g)
}

// PeriodKeyFor returns the key that selects the goals active in month k.
func PeriodKeyFor(k core.MonthKey) core.PeriodKey {
	return core.PeriodKey{Year: k.Year, Month: int(k.Month)}
}
